package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
)

type ModerationHandler struct {
	moderationUseCase *usecase.ModerationUseCase
}

func NewModerationHandler(moderationUseCase *usecase.ModerationUseCase) *ModerationHandler {
	return &ModerationHandler{
		moderationUseCase: moderationUseCase,
	}
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *ModerationHandler) FlagProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.moderationUseCase.FlagProduct(c.Request().Context(), id, middleware.UID(c), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ModerationHandler) SubmitAppeal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.moderationUseCase.SubmitAppeal(c.Request().Context(), id, middleware.UID(c), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}
