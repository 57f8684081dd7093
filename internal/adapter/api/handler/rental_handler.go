package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/domain/entity"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
	"rentalhub/pkg/utils"
)

// RentalHandler exposes the rental lifecycle. Owner-side transitions are checked against the listing owner here.
type RentalHandler struct {
	rentalUseCase  *usecase.RentalUseCase
	listingUseCase *usecase.ListingUseCase
}

func NewRentalHandler(rentalUseCase *usecase.RentalUseCase, listingUseCase *usecase.ListingUseCase) *RentalHandler {
	return &RentalHandler{
		rentalUseCase:  rentalUseCase,
		listingUseCase: listingUseCase,
	}
}

type listingTransition func(ctx context.Context, listingID string) (*entity.Listing, error)

type rentalRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

type paymentMethodRequest struct {
	PaymentMethod  string `json:"payment_method" validate:"required,payment_method"`
	PickupLocation string `json:"pickup_location" validate:"omitempty,max=200"`
}

func (h *RentalHandler) PlaceRentalRequest(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req rentalRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.rentalUseCase.PlaceRentalRequest(c.Request().Context(), id, middleware.UID(c), req.Days)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *RentalHandler) CancelRentalRequest(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := h.rentalUseCase.CancelRentalRequest(c.Request().Context(), id, middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *RentalHandler) SelectPaymentMethod(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req paymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.rentalUseCase.SelectPaymentMethod(c.Request().Context(), id, middleware.UID(c), req.PaymentMethod, req.PickupLocation)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *RentalHandler) RequestReturn(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := h.rentalUseCase.RequestReturn(c.Request().Context(), id, middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *RentalHandler) ApproveRentalRequest(c echo.Context) error {
	return h.ownerTransition(c, h.rentalUseCase.ApproveRentalRequest)
}

func (h *RentalHandler) RejectRentalRequest(c echo.Context) error {
	return h.ownerTransition(c, h.rentalUseCase.RejectRentalRequest)
}

func (h *RentalHandler) CompleteCashPayment(c echo.Context) error {
	return h.ownerTransition(c, h.rentalUseCase.CompleteCashPayment)
}

func (h *RentalHandler) HandoverProduct(c echo.Context) error {
	return h.ownerTransition(c, h.rentalUseCase.HandoverProduct)
}

func (h *RentalHandler) VerifyReturn(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if _, err := ownedListing(c, h.listingUseCase, id); err != nil {
		return response.Error(c, err)
	}

	listing, verifiedAt, err := h.rentalUseCase.VerifyReturn(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"listing":     listing,
		"verified_at": verifiedAt,
	})
}

func (h *RentalHandler) RentalHistory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if _, err := ownedListing(c, h.listingUseCase, id); err != nil {
		return response.Error(c, err)
	}

	receipts, err := h.rentalUseCase.GetRentalHistory(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, receipts)
}

func (h *RentalHandler) ListMyTransactions(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	receipts, total, err := h.rentalUseCase.ListUserTransactions(c.Request().Context(), middleware.UID(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, receipts, total, p.Page, p.PageSize)
}

func (h *RentalHandler) ownerTransition(c echo.Context, transition listingTransition) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if _, err := ownedListing(c, h.listingUseCase, id); err != nil {
		return response.Error(c, err)
	}

	listing, err := transition(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}
