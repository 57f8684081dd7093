package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/domain/service"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const (
	MsgNotAvailable          = "Product is not available for rent"
	MsgCancelNotAllowed      = "Only the requester can cancel a pending request"
	MsgApproveNotPending     = "Only pending requests can be approved"
	MsgRejectNotPending      = "Only pending requests can be rejected"
	MsgPaymentMethodTooEarly = "Payment method can only be chosen after approval"
	MsgCashNotAllowed        = "Cash payment requires an approved request with Cash on Delivery"
	MsgHandoverNotPaid       = "Product must be in 'paid' status for handover"
	MsgReturnNotAllowed      = "Only the renter can return a rented product"
	MsgVerifyNotReturning    = "Product must be in 'returning' status to verify the return"
	MsgOnlineNotAllowed      = "Online payment requires an approved request with Khalti"
	MsgUnknownStatus         = "Product has an unknown rental status"

	MaxRentalDays = 365
)

type RentalUseCase struct {
	listingRepo     repository.ListingRepository
	transactionRepo repository.TransactionRepository
	gateway         service.PaymentGateway
	notifier        NotificationSender
	events          EventPublisher
	limiter         RateLimiter
	now             func() time.Time
}

func NewRentalUseCase(
	listingRepo repository.ListingRepository,
	transactionRepo repository.TransactionRepository,
	gateway service.PaymentGateway,
	notifier NotificationSender,
	events EventPublisher,
	limiter RateLimiter,
) *RentalUseCase {
	return &RentalUseCase{
		listingRepo:     listingRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		notifier:        notifier,
		events:          events,
		limiter:         limiter,
		now:             systemClock,
	}
}

// Transitions. Each is a pure function of the stored listing, safe to retry.

func requireKnownStatus(l *entity.Listing) error {
	if !l.RentalStatus.Valid() {
		return errors.Aborted(MsgUnknownStatus)
	}
	return nil
}

func placeRequest(renterID string, days int) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if err := requireKnownStatus(l); err != nil {
			return err
		}
		if !l.Available || l.OutOfStock || l.Flagged || !l.RentalStatus.IsIdle() || l.OwnerID == renterID {
			return errors.Aborted(MsgNotAvailable)
		}
		l.RentalStatus = entity.RentalStatusPending
		l.RentalRequesterID = renterID
		l.RentalDays = days
		l.Available = false
		return nil
	}
}

func cancelRequest(renterID string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalRequesterID != renterID || l.RentalStatus != entity.RentalStatusPending {
			return errors.Aborted(MsgCancelNotAllowed)
		}
		l.ClearRental()
		l.RestoreAvailability()
		return nil
	}
}

func approveRequest(renterID *string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalStatus != entity.RentalStatusPending {
			return errors.Aborted(MsgApproveNotPending)
		}
		*renterID = l.RentalRequesterID
		l.RentalStatus = entity.RentalStatusApproved
		return nil
	}
}

func rejectRequest(renterID *string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalStatus != entity.RentalStatusPending {
			return errors.Aborted(MsgRejectNotPending)
		}
		*renterID = l.RentalRequesterID
		l.ClearRental()
		l.RestoreAvailability()
		return nil
	}
}

func choosePaymentMethod(renterID, method, pickup string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalRequesterID != renterID || l.RentalStatus != entity.RentalStatusApproved {
			return errors.Aborted(MsgPaymentMethodTooEarly)
		}
		l.PaymentMethod = method
		if pickup != "" {
			l.PickupLocation = pickup
		}
		return nil
	}
}

func markPaid(l *entity.Listing) {
	l.RentalStatus = entity.RentalStatusPaid
	l.Available = false
	l.OutOfStock = true
}

func completeCash(l *entity.Listing) error {
	if l.RentalStatus != entity.RentalStatusApproved || l.PaymentMethod != entity.PaymentMethodCash {
		return errors.Aborted(MsgCashNotAllowed)
	}
	markPaid(l)
	return nil
}

// completeOnline is idempotent for a listing already paid by the same renter.
func completeOnline(renterID string) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalStatus == entity.RentalStatusPaid && l.RentalRequesterID == renterID {
			return nil
		}
		if l.RentalStatus != entity.RentalStatusApproved || l.PaymentMethod != entity.PaymentMethodKhalti || l.RentalRequesterID != renterID {
			return errors.Aborted(MsgOnlineNotAllowed)
		}
		markPaid(l)
		return nil
	}
}

func handover(now time.Time) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalStatus != entity.RentalStatusPaid {
			return errors.Aborted(MsgHandoverNotPaid)
		}
		start := now.UnixMilli()
		l.RentalStatus = entity.RentalStatusRented
		l.RentalStartDate = start
		l.RentalEndDate = start + int64(l.RentalDays)*entity.DayMillis
		l.OutOfStock = true
		l.Available = false
		return nil
	}
}

func requestReturn(renterID string, now time.Time, lateDays *int) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalRequesterID != renterID || l.RentalStatus != entity.RentalStatusRented {
			return errors.Aborted(MsgReturnNotAllowed)
		}
		*lateDays = l.OverdueDays(now)
		l.RentalStatus = entity.RentalStatusReturning
		if ms := now.UnixMilli(); ms > l.RentalEndDate {
			l.RentalEndDate = ms
		}
		return nil
	}
}

func verifyReturn(renterID *string, now time.Time) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.RentalStatus != entity.RentalStatusReturning {
			return errors.Aborted(MsgVerifyNotReturning)
		}
		*renterID = l.RentalRequesterID
		l.ClearRental()
		l.RentalStartDate = 0
		l.RentalEndDate = now.UnixMilli()
		l.RestoreAvailability()
		return nil
	}
}

func forceEnd(renterID *string, now time.Time) repository.ListingMutation {
	return func(l *entity.Listing) error {
		*renterID = l.RentalRequesterID
		if l.RentalStatus != entity.RentalStatusIdle {
			l.RentalEndDate = now.UnixMilli()
		}
		l.ClearRental()
		l.RentalStartDate = 0
		l.RestoreAvailability()
		return nil
	}
}

// Operations.

func (uc *RentalUseCase) PlaceRentalRequest(ctx context.Context, listingID, renterID string, days int) (*entity.Listing, error) {
	if days <= 0 || days > MaxRentalDays {
		return nil, errors.BadRequest(fmt.Sprintf("Rental days must be between 1 and %d", MaxRentalDays), nil)
	}
	if err := allow(ctx, uc.limiter, renterID, "rental_request"); err != nil {
		return nil, err
	}

	now := uc.now()
	listing, err := transactListing(ctx, uc.listingRepo, listingID, placeRequest(renterID, days))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindRental, "New rental request",
		fmt.Sprintf("Someone wants to rent %s for %d day(s).", listing.Title, days))
	publish(ctx, uc.events, entity.RentalEventRequested, listing, renterID, now)
	return listing, nil
}

func (uc *RentalUseCase) CancelRentalRequest(ctx context.Context, listingID, renterID string) (*entity.Listing, error) {
	now := uc.now()
	listing, err := transactListing(ctx, uc.listingRepo, listingID, cancelRequest(renterID))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindRental, "Rental request cancelled",
		fmt.Sprintf("The request for %s was cancelled.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventCancelled, listing, renterID, now)
	return listing, nil
}

func (uc *RentalUseCase) ApproveRentalRequest(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	var renterID string
	listing, err := transactListing(ctx, uc.listingRepo, listingID, approveRequest(&renterID))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, renterID, listing.ID, KindRental, "Rental request approved",
		fmt.Sprintf("Your request for %s was approved. Choose a payment method to continue.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventApproved, listing, renterID, now)
	return listing, nil
}

func (uc *RentalUseCase) RejectRentalRequest(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	var renterID string
	listing, err := transactListing(ctx, uc.listingRepo, listingID, rejectRequest(&renterID))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, renterID, listing.ID, KindRental, "Rental request rejected",
		fmt.Sprintf("Your request for %s was rejected.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventRejected, listing, renterID, now)
	return listing, nil
}

func (uc *RentalUseCase) SelectPaymentMethod(ctx context.Context, listingID, renterID, method, pickupLocation string) (*entity.Listing, error) {
	if method != entity.PaymentMethodCash && method != entity.PaymentMethodKhalti {
		return nil, errors.BadRequest(fmt.Sprintf("Payment method must be one of: %s, %s", entity.PaymentMethodCash, entity.PaymentMethodKhalti), nil)
	}

	listing, err := transactListing(ctx, uc.listingRepo, listingID,
		choosePaymentMethod(renterID, method, strings.TrimSpace(pickupLocation)))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindPayment, "Payment method selected",
		fmt.Sprintf("The renter of %s chose %s.", listing.Title, method))
	return listing, nil
}

func (uc *RentalUseCase) CompleteCashPayment(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	listing, err := transactListing(ctx, uc.listingRepo, listingID, completeCash)
	if err != nil {
		return nil, err
	}

	uc.recordReceipt(ctx, &entity.Transaction{
		ListingID:     listing.ID,
		RenterID:      listing.RentalRequesterID,
		OwnerID:       listing.OwnerID,
		Amount:        listing.RentalTotal(),
		Days:          listing.RentalDays,
		PaymentMethod: entity.PaymentMethodCash,
		PaymentStatus: entity.PaymentStatusCompleted,
	})

	notify(ctx, uc.notifier, listing.RentalRequesterID, listing.ID, KindPayment, "Payment received",
		fmt.Sprintf("Your cash payment for %s was recorded.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventPaid, listing, listing.RentalRequesterID, now)
	return listing, nil
}

func (uc *RentalUseCase) HandoverProduct(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	listing, err := transactListing(ctx, uc.listingRepo, listingID, handover(now))
	if err != nil {
		return nil, err
	}

	due := time.UnixMilli(listing.RentalEndDate).UTC().Format("2006-01-02 15:04 MST")
	notify(ctx, uc.notifier, listing.RentalRequesterID, listing.ID, KindRental, "Rental started",
		fmt.Sprintf("You received %s. Please return it by %s.", listing.Title, due))
	publish(ctx, uc.events, entity.RentalEventHandedOver, listing, listing.RentalRequesterID, now)
	return listing, nil
}

func (uc *RentalUseCase) RequestReturn(ctx context.Context, listingID, renterID string) (*entity.Listing, error) {
	now := uc.now()
	var lateDays int
	listing, err := transactListing(ctx, uc.listingRepo, listingID, requestReturn(renterID, now, &lateDays))
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("The renter is returning %s.", listing.Title)
	if lateDays > 0 {
		body = fmt.Sprintf("The renter is returning %s, %d day(s) late.", listing.Title, lateDays)
	}
	notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindRental, "Return requested", body)
	publish(ctx, uc.events, entity.RentalEventReturnRequested, listing, renterID, now)
	return listing, nil
}

// VerifyReturn completes the rental and returns the verification time in epoch milliseconds.
func (uc *RentalUseCase) VerifyReturn(ctx context.Context, listingID string) (*entity.Listing, int64, error) {
	now := uc.now()
	var renterID string
	listing, err := transactListing(ctx, uc.listingRepo, listingID, verifyReturn(&renterID, now))
	if err != nil {
		return nil, 0, err
	}

	notify(ctx, uc.notifier, renterID, listing.ID, KindRental, "Return verified",
		fmt.Sprintf("The owner confirmed the return of %s. Thanks for renting!", listing.Title))
	publish(ctx, uc.events, entity.RentalEventReturnVerified, listing, renterID, now)
	return listing, now.UnixMilli(), nil
}

// EndRental forces the listing back to idle whatever its rental status.
func (uc *RentalUseCase) EndRental(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := uc.now()
	var renterID string
	listing, err := transactListing(ctx, uc.listingRepo, listingID, forceEnd(&renterID, now))
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, renterID, listing.ID, KindRental, "Rental ended",
		fmt.Sprintf("The rental of %s was ended by an administrator.", listing.Title))
	publish(ctx, uc.events, entity.RentalEventEnded, listing, renterID, now)
	return listing, nil
}

// GetRentalHistory lists the receipts of a listing, newest first.
func (uc *RentalUseCase) GetRentalHistory(ctx context.Context, listingID string) ([]*entity.Transaction, error) {
	return uc.transactionRepo.ListByListingID(ctx, listingID)
}

func (uc *RentalUseCase) ListUserTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error) {
	return uc.transactionRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *RentalUseCase) recordReceipt(ctx context.Context, receipt *entity.Transaction) {
	if err := uc.transactionRepo.Create(ctx, receipt); err != nil {
		logger.LogTransactionError(receipt.ListingID, "create_receipt", err)
	}
}
