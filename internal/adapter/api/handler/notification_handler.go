package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
	"rentalhub/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationUseCase.ListNotifications(c.Request().Context(), middleware.UID(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, notifications, total, p.Page, p.PageSize)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), middleware.UID(c), id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Notification marked as read",
	})
}
