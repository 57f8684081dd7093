package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
)

type UserHandler struct {
	userUseCase       *usecase.UserUseCase
	moderationUseCase *usecase.ModerationUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase, moderationUseCase *usecase.ModerationUseCase) *UserHandler {
	return &UserHandler{
		userUseCase:       userUseCase,
		moderationUseCase: moderationUseCase,
	}
}

type deviceTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

// GetMe returns the caller's account, creating it on first sign-in.
func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := h.userUseCase.EnsureUser(c.Request().Context(), middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req usecase.UpdateProfileInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), middleware.UID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UploadKYCDocument(c echo.Context) error {
	file, contentType, err := formFile(c, "document")
	if err != nil {
		return response.Error(c, err)
	}
	defer file.Close()

	user, err := h.userUseCase.UploadKYCDocument(c.Request().Context(), middleware.UID(c), file, contentType)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// DeleteMe removes the caller's listings, conversations and account.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	if err := h.moderationUseCase.DeleteUserAccount(c.Request().Context(), middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Account deleted successfully",
	})
}

func (h *UserHandler) RegisterDeviceToken(c echo.Context) error {
	var req deviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.RegisterDeviceToken(c.Request().Context(), middleware.UID(c), req.Token); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Device token registered",
	})
}

func (h *UserHandler) RemoveDeviceToken(c echo.Context) error {
	var req deviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.RemoveDeviceToken(c.Request().Context(), middleware.UID(c), req.Token); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Device token removed",
	})
}
