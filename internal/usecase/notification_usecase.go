package usecase

import (
	"context"
	"fmt"
	"strings"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

// Realtime event type for notifications.
const EventTypeNotification = "notification"

// NotificationUseCase stores a notification for the in-app inbox and then pushes it
// to the user's open sockets and registered devices. Delivery is best effort.
type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	realtime         RealtimePusher
	push             PushSender
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	realtime RealtimePusher,
	push PushSender,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		realtime:         realtime,
		push:             push,
	}
}

func (uc *NotificationUseCase) SendAndSaveNotification(ctx context.Context, userID, title, body string) (bool, string) {
	return uc.SendListingNotification(ctx, userID, "", "", title, body)
}

func (uc *NotificationUseCase) SendListingNotification(ctx context.Context, userID, listingID, kind, title, body string) (bool, string) {
	notification := &entity.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      kind,
		ListingID: listingID,
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return errors.Outcome(err)
	}

	var delivered []string
	if uc.realtime != nil {
		if n := uc.realtime.Push(userID, EventTypeNotification, notification); n > 0 {
			delivered = append(delivered, fmt.Sprintf("%d socket(s)", n))
		}
	}
	if n := uc.sendPush(ctx, userID, notification); n > 0 {
		delivered = append(delivered, fmt.Sprintf("%d device(s)", n))
	}

	if len(delivered) == 0 {
		return true, "Notification saved"
	}
	return true, "Notification saved and sent to " + strings.Join(delivered, " and ")
}

// sendPush returns the number of tokens the push service accepted and forgets tokens it reports as gone.
func (uc *NotificationUseCase) sendPush(ctx context.Context, userID string, notification *entity.Notification) int {
	if uc.push == nil || uc.userRepo == nil {
		return 0
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil || len(user.FCMTokens) == 0 {
		return 0
	}

	data := map[string]string{"notification_id": notification.ID}
	if notification.ListingID != "" {
		data["listing_id"] = notification.ListingID
	}
	if notification.Type != "" {
		data["type"] = notification.Type
	}

	stale, err := uc.push.Send(ctx, user.FCMTokens, notification.Title, notification.Body, data)
	if err != nil {
		logger.Warn("Push to %s failed: %v", userID, err)
		return 0
	}
	if len(stale) > 0 {
		if _, err := uc.userRepo.Transact(ctx, userID, removeTokens(stale)); err != nil {
			logger.Warn("Failed to prune %d stale token(s) for %s: %v", len(stale), userID, err)
		}
	}
	return len(user.FCMTokens) - len(stale)
}

func removeTokens(tokens []string) repository.UserMutation {
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	return func(u *entity.User) error {
		kept := u.FCMTokens[:0:0]
		for _, t := range u.FCMTokens {
			if !drop[t] {
				kept = append(kept, t)
			}
		}
		u.FCMTokens = kept
		return nil
	}
}

func (uc *NotificationUseCase) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	return uc.notificationRepo.MarkRead(ctx, userID, notificationID)
}
