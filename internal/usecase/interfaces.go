package usecase

import (
	"context"
	"time"

	"rentalhub/internal/domain/entity"
)

// NotificationSender is fire-and-forget: callers log a false result and carry on.
type NotificationSender interface {
	SendAndSaveNotification(ctx context.Context, userID, title, body string) (bool, string)
}

// ListingNotifier is optionally implemented by a NotificationSender that can tag
// notifications with the listing and kind they are about.
type ListingNotifier interface {
	SendListingNotification(ctx context.Context, userID, listingID, kind, title, body string) (bool, string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.RentalEvent) error
}

type IdentityDeleter interface {
	DeleteUser(ctx context.Context, uid string) error
}

// PushSender delivers to device tokens and returns tokens that are no longer registered.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// RealtimePusher sends a typed frame to every live connection of a user.
type RealtimePusher interface {
	Push(userID, eventType string, data interface{}) int
}

type RateLimiter interface {
	Allow(ctx context.Context, userID, action string) (bool, time.Duration, error)
}
