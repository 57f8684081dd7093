package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const (
	MsgFlagOwnListing   = "You cannot flag your own product"
	MsgNoFlagsToReview  = "Product has no flags to review"
	MsgAppealNotFlagged = "Only flagged products can be appealed"
	MsgAppealNotOwner   = "Only the owner can appeal a flagged product"
)

type ModerationUseCase struct {
	listingRepo      repository.ListingRepository
	userRepo         repository.UserRepository
	conversationRepo repository.ConversationRepository
	identity         IdentityDeleter
	notifier         NotificationSender
	events           EventPublisher
	limiter          RateLimiter
	now              func() time.Time
}

func NewModerationUseCase(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	conversationRepo repository.ConversationRepository,
	identity IdentityDeleter,
	notifier NotificationSender,
	events EventPublisher,
	limiter RateLimiter,
) *ModerationUseCase {
	return &ModerationUseCase{
		listingRepo:      listingRepo,
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		identity:         identity,
		notifier:         notifier,
		events:           events,
		limiter:          limiter,
		now:              systemClock,
	}
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func flagListing(userID, reason string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.OwnerID == userID {
			return errors.Aborted(MsgFlagOwnListing)
		}
		if l.HasFlagFrom(userID) {
			return nil
		}
		l.FlaggedBy = append(l.FlaggedBy, userID)
		if reason != "" {
			l.FlaggedReason = appendUnique(l.FlaggedReason, reason)
		}
		return nil
	}
}

func markForReview(alreadyFlagged *bool) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if len(l.FlaggedBy) == 0 {
			return errors.Aborted(MsgNoFlagsToReview)
		}
		*alreadyFlagged = l.Flagged
		l.Flagged = true
		l.Available = false
		return nil
	}
}

func clearFlags(l *entity.Listing) error {
	l.Flagged = false
	l.FlaggedBy = []string{}
	l.FlaggedReason = []string{}
	l.AppealReason = ""
	l.Available = l.RentalStatus.IsIdle()
	return nil
}

func submitAppeal(ownerID, reason string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.OwnerID != ownerID {
			return errors.Aborted(MsgAppealNotOwner)
		}
		if !l.Flagged {
			return errors.Aborted(MsgAppealNotFlagged)
		}
		l.AppealReason = reason
		return nil
	}
}

func adjustFlagCount(delta int) repository.UserMutation {
	return func(u *entity.User) error {
		u.FlagCount += delta
		if u.FlagCount < 0 {
			u.FlagCount = 0
		}
		return nil
	}
}

// FlagProduct records a report from userID. Reporting the same listing twice is a no-op.
func (uc *ModerationUseCase) FlagProduct(ctx context.Context, listingID, userID, reason string) (*entity.Listing, error) {
	if err := allow(ctx, uc.limiter, userID, "flag_listing"); err != nil {
		return nil, err
	}
	return transactListing(ctx, uc.listingRepo, listingID, flagListing(userID, strings.TrimSpace(reason)))
}

// MarkProductForReview takes a reported listing off the market and counts the violation against its owner.
// The listing update, the counter and the notification are separate steps.
func (uc *ModerationUseCase) MarkProductForReview(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	var alreadyFlagged bool
	listing, err := transactListing(ctx, uc.listingRepo, listingID, markForReview(&alreadyFlagged))
	if err != nil {
		return nil, err
	}
	if alreadyFlagged {
		return listing, nil
	}

	if _, err := uc.IncrementFlagCount(ctx, listing.OwnerID); err != nil {
		logger.LogTransactionError(listing.OwnerID, "increment_flag_count", err)
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindModeration, "Product under review",
		fmt.Sprintf("%s was reported and is hidden until an administrator reviews it. You can submit an appeal.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventFlaggedForReview, listing, listing.RentalRequesterID, now)
	return listing, nil
}

// ClearFlags resolves all reports on a listing. The owner's FlagCount is left as is.
func (uc *ModerationUseCase) ClearFlags(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	listing, err := transactListing(ctx, uc.listingRepo, listingID, clearFlags)
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindModeration, "Product restored",
		fmt.Sprintf("The reports on %s were resolved.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventFlagsCleared, listing, listing.RentalRequesterID, now)
	return listing, nil
}

func (uc *ModerationUseCase) SubmitAppeal(ctx context.Context, listingID, ownerID, reason string) (*entity.Listing, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.BadRequest("Appeal reason is required", nil)
	}
	return transactListing(ctx, uc.listingRepo, listingID, submitAppeal(ownerID, reason))
}

// DeleteProduct removes a listing as an administrator, whatever its state.
func (uc *ModerationUseCase) DeleteProduct(ctx context.Context, listingID string) error {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := deleteListing(ctx, uc.listingRepo, uc.conversationRepo, listingID); err != nil {
		return err
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindModeration, "Product removed",
		fmt.Sprintf("%s was removed by an administrator.", listing.Title))
	return nil
}

// DeleteUserAccount removes every listing the user owns, then the account and its sign-in identity.
// A failure part way leaves the listings already removed deleted.
func (uc *ModerationUseCase) DeleteUserAccount(ctx context.Context, userID string) error {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	listings, err := uc.listingRepo.ListByOwnerID(ctx, userID)
	if err != nil {
		return err
	}
	for _, listing := range listings {
		if err := deleteListing(ctx, uc.listingRepo, uc.conversationRepo, listing.ID); err != nil {
			return err
		}
	}

	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if uc.identity != nil {
		if err := uc.identity.DeleteUser(ctx, userID); err != nil {
			logger.LogTransactionError(userID, "delete_identity", err)
		}
	}

	logger.Info("Deleted user %s and %d listing(s)", userID, len(listings))
	return nil
}

func (uc *ModerationUseCase) IncrementFlagCount(ctx context.Context, userID string) (*entity.User, error) {
	return transactUser(ctx, uc.userRepo, userID, adjustFlagCount(1))
}

// DecrementFlagCount never takes the counter below zero.
func (uc *ModerationUseCase) DecrementFlagCount(ctx context.Context, userID string) (*entity.User, error) {
	return transactUser(ctx, uc.userRepo, userID, adjustFlagCount(-1))
}

func (uc *ModerationUseCase) ListFlaggedProducts(ctx context.Context, limit, offset int) ([]*entity.Listing, int64, error) {
	flagged := true
	return uc.listingRepo.List(ctx, repository.ListingFilter{Flagged: &flagged}, limit, offset)
}

// ListReportedProducts returns listings with at least one report, most reported first.
func (uc *ModerationUseCase) ListReportedProducts(ctx context.Context, limit, offset int) ([]*entity.Listing, int64, error) {
	return uc.listingRepo.List(ctx, repository.ListingFilter{Reported: true}, limit, offset)
}

func (uc *ModerationUseCase) VerifyProduct(ctx context.Context, listingID string, verified bool) (*entity.Listing, error) {
	return transactListing(ctx, uc.listingRepo, listingID, func(l *entity.Listing) error {
		l.Verified = verified
		return nil
	})
}
