package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
)

type PaymentHandler struct {
	rentalUseCase *usecase.RentalUseCase
}

func NewPaymentHandler(rentalUseCase *usecase.RentalUseCase) *PaymentHandler {
	return &PaymentHandler{
		rentalUseCase: rentalUseCase,
	}
}

type verifyKhaltiRequest struct {
	Pidx string `json:"pidx" validate:"required"`
}

func (h *PaymentHandler) InitiateKhalti(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.rentalUseCase.InitiateOnlinePayment(c.Request().Context(), id, middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// VerifyKhalti accepts the pidx either in the body or as the ?pidx query param Khalti appends to the return URL.
func (h *PaymentHandler) VerifyKhalti(c echo.Context) error {
	var req verifyKhaltiRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if req.Pidx == "" {
		req.Pidx = c.QueryParam("pidx")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.rentalUseCase.VerifyOnlinePayment(c.Request().Context(), req.Pidx, middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
