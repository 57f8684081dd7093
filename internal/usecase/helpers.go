package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

// Notification kinds.
const (
	KindRental     = "rental"
	KindModeration = "moderation"
	KindPayment    = "payment"
	KindKYC        = "kyc"
)

func notify(ctx context.Context, sender NotificationSender, userID, listingID, kind, title, body string) {
	if sender == nil || userID == "" {
		return
	}

	var ok bool
	var info string
	if ln, isListing := sender.(ListingNotifier); isListing {
		ok, info = ln.SendListingNotification(ctx, userID, listingID, kind, title, body)
	} else {
		ok, info = sender.SendAndSaveNotification(ctx, userID, title, body)
	}
	if !ok {
		logger.Warn("Notification to %s about %s not delivered: %s", userID, listingID, info)
	}
}

func publish(ctx context.Context, events EventPublisher, eventType string, listing *entity.Listing, renterID string, at time.Time) {
	if events == nil {
		return
	}
	event := entity.RentalEvent{
		Type:       eventType,
		ListingID:  listing.ID,
		OwnerID:    listing.OwnerID,
		RenterID:   renterID,
		Status:     listing.RentalStatus.String(),
		OccurredAt: at.UnixMilli(),
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.LogTransactionError(listing.ID, eventType, err)
	}
}

func allow(ctx context.Context, limiter RateLimiter, userID, action string) error {
	if limiter == nil {
		return nil
	}
	ok, wait, err := limiter.Allow(ctx, userID, action)
	if err != nil {
		logger.Warn("Rate limiter error for %s/%s: %v", userID, action, err)
		return nil
	}
	if !ok {
		return errors.TooManyRequests(fmt.Sprintf("Too many requests, try again in %d seconds", int(math.Ceil(wait.Seconds()))))
	}
	return nil
}

// transactListing runs fn and maps a missing listing to NotFound.
func transactListing(ctx context.Context, repo repository.ListingRepository, listingID string, fn repository.ListingMutation) (*entity.Listing, error) {
	listing, err := repo.Transact(ctx, listingID, fn)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, errors.NotFound("Product", nil)
	}
	return listing, nil
}

func transactUser(ctx context.Context, repo repository.UserRepository, userID string, fn repository.UserMutation) (*entity.User, error) {
	user, err := repo.Transact(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

// deleteListing removes a listing and then its conversations. The second step is best effort.
func deleteListing(ctx context.Context, listings repository.ListingRepository, conversations repository.ConversationRepository, listingID string) error {
	if err := listings.Delete(ctx, listingID); err != nil {
		return err
	}
	if conversations != nil {
		if err := conversations.DeleteByListingID(ctx, listingID); err != nil {
			logger.LogTransactionError(listingID, "delete_conversations", err)
		}
	}
	return nil
}

func systemClock() time.Time {
	return time.Now()
}
