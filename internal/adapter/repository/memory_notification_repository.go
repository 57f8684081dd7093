package repository

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/memstore"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

type memoryNotificationRepository struct {
	notifications *memstore.Collection[*entity.Notification]
}

func NewMemoryNotificationRepository() repository.NotificationRepository {
	return &memoryNotificationRepository{
		notifications: memstore.NewCollection((*entity.Notification).Clone),
	}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	if err := r.notifications.Insert(notification.ID, notification); err != nil {
		return errors.Internal("Failed to save notification", err)
	}
	return nil
}

func (r *memoryNotificationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	notifications := r.notifications.Query(func(n *entity.Notification) bool { return n.UserID == userID })
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	start, end := utils.Window(len(notifications), offset, limit)
	return notifications[start:end], int64(len(notifications)), nil
}

func (r *memoryNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	_, found, err := r.notifications.Transact(ctx, id, func(n *entity.Notification) error {
		if n.UserID != userID {
			return errors.NotFound("Notification", nil)
		}
		n.Read = true
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return appErr
		}
		return errors.Internal("Failed to update notification", err)
	}
	if !found {
		return errors.NotFound("Notification", nil)
	}
	return nil
}
