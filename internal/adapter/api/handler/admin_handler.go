package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/response"
	"rentalhub/pkg/utils"
)

// AdminHandler serves the moderation queue and account administration. Routes are guarded by AdminOnly.
type AdminHandler struct {
	moderationUseCase *usecase.ModerationUseCase
	rentalUseCase     *usecase.RentalUseCase
	userUseCase       *usecase.UserUseCase
}

func NewAdminHandler(
	moderationUseCase *usecase.ModerationUseCase,
	rentalUseCase *usecase.RentalUseCase,
	userUseCase *usecase.UserUseCase,
) *AdminHandler {
	return &AdminHandler{
		moderationUseCase: moderationUseCase,
		rentalUseCase:     rentalUseCase,
		userUseCase:       userUseCase,
	}
}

type verifyListingRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

type reviewKYCRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

func (h *AdminHandler) ListFlaggedProducts(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	listings, total, err := h.moderationUseCase.ListFlaggedProducts(c.Request().Context(), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, p.Page, p.PageSize)
}

func (h *AdminHandler) ListReportedProducts(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	listings, total, err := h.moderationUseCase.ListReportedProducts(c.Request().Context(), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, p.Page, p.PageSize)
}

func (h *AdminHandler) MarkForReview(c echo.Context) error {
	return h.listingAction(c, h.moderationUseCase.MarkProductForReview)
}

func (h *AdminHandler) ClearFlags(c echo.Context) error {
	return h.listingAction(c, h.moderationUseCase.ClearFlags)
}

func (h *AdminHandler) EndRental(c echo.Context) error {
	return h.listingAction(c, h.rentalUseCase.EndRental)
}

func (h *AdminHandler) VerifyProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req verifyListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.moderationUseCase.VerifyProduct(c.Request().Context(), id, *req.Verified)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.moderationUseCase.DeleteProduct(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Product deleted successfully",
	})
}

func (h *AdminHandler) IncrementFlagCount(c echo.Context) error {
	return h.userAction(c, h.moderationUseCase.IncrementFlagCount)
}

func (h *AdminHandler) DecrementFlagCount(c echo.Context) error {
	return h.userAction(c, h.moderationUseCase.DecrementFlagCount)
}

func (h *AdminHandler) ListPendingKYC(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	users, total, err := h.userUseCase.ListPendingKYC(c.Request().Context(), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, users, total, p.Page, p.PageSize)
}

func (h *AdminHandler) ReviewKYC(c echo.Context) error {
	uid, err := userParam(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req reviewKYCRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.ReviewKYC(c.Request().Context(), uid, *req.Approve)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	uid, err := userParam(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.moderationUseCase.DeleteUserAccount(c.Request().Context(), uid); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "User deleted successfully",
	})
}

func (h *AdminHandler) listingAction(c echo.Context, action listingTransition) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := action(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *AdminHandler) userAction(c echo.Context, action func(ctx context.Context, userID string) (*entity.User, error)) error {
	uid, err := userParam(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := action(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func userParam(c echo.Context) (string, error) {
	uid := c.Param("id")
	if uid == "" {
		return "", errors.BadRequest("User ID is required", nil)
	}
	return uid, nil
}
