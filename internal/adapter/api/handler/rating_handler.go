package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
)

type RatingHandler struct {
	ratingUseCase *usecase.RatingUseCase
}

func NewRatingHandler(ratingUseCase *usecase.RatingUseCase) *RatingHandler {
	return &RatingHandler{
		ratingUseCase: ratingUseCase,
	}
}

// A zero rating retracts the caller's earlier rating.
type ratingRequest struct {
	Rating *float64 `json:"rating" validate:"required,min=0,max=5"`
}

func (h *RatingHandler) UpdateRating(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req ratingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.ratingUseCase.UpdateRating(c.Request().Context(), id, middleware.UID(c), *req.Rating)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}
