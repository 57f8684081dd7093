package usecase

import (
	"context"
	"fmt"
	"math"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/service"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

type OnlinePaymentResult struct {
	Receipt    *entity.Transaction `json:"receipt"`
	PaymentURL string              `json:"payment_url,omitempty"`
	ExpiresAt  string              `json:"expires_at,omitempty"`
	Listing    *entity.Listing     `json:"listing,omitempty"`
}

// InitiateOnlinePayment opens a gateway session for an approved Khalti rental and records an Initiated receipt.
func (uc *RentalUseCase) InitiateOnlinePayment(ctx context.Context, listingID, renterID string) (*OnlinePaymentResult, error) {
	if uc.gateway == nil {
		return nil, errors.BadRequest("Online payment is not configured", nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.RentalStatus != entity.RentalStatusApproved ||
		listing.PaymentMethod != entity.PaymentMethodKhalti ||
		listing.RentalRequesterID != renterID {
		return nil, errors.Aborted(MsgOnlineNotAllowed)
	}

	receipt := &entity.Transaction{
		ListingID:     listing.ID,
		RenterID:      renterID,
		OwnerID:       listing.OwnerID,
		Amount:        listing.RentalTotal(),
		Days:          listing.RentalDays,
		PaymentMethod: entity.PaymentMethodKhalti,
		PaymentStatus: entity.PaymentStatusInitiated,
	}

	session, err := uc.gateway.InitiatePayment(ctx, service.PaymentRequest{
		OrderID:   fmt.Sprintf("%s-%d", listing.ID, uc.now().UnixMilli()),
		OrderName: listing.Title,
		Amount:    receipt.Amount,
	})
	if err != nil {
		return nil, errors.Internal("Failed to initiate payment", err)
	}
	receipt.Pidx = session.Pidx

	if err := uc.transactionRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}

	logger.Info("Initiated Khalti payment %s for listing %s", receipt.Pidx, listing.ID)
	return &OnlinePaymentResult{
		Receipt:    receipt,
		PaymentURL: session.PaymentURL,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

// VerifyOnlinePayment looks the session up at the gateway and, once completed, moves the listing to Paid.
// Calling it again for a completed payment returns the same result.
func (uc *RentalUseCase) VerifyOnlinePayment(ctx context.Context, pidx, renterID string) (*OnlinePaymentResult, error) {
	if uc.gateway == nil {
		return nil, errors.BadRequest("Online payment is not configured", nil)
	}

	receipt, err := uc.transactionRepo.GetByPidx(ctx, pidx)
	if err != nil {
		return nil, err
	}
	if receipt.RenterID != renterID {
		return nil, errors.Forbidden("You can only verify your own payments", nil)
	}

	lookup, err := uc.gateway.LookupPayment(ctx, pidx)
	if err != nil {
		return nil, errors.Internal("Failed to look up payment", err)
	}

	status := receiptStatus(lookup.Status)
	if status == entity.PaymentStatusCompleted && math.Abs(lookup.TotalAmount-receipt.Amount) > 0.005 {
		logger.Warn("Payment %s amount mismatch: paid %.2f, expected %.2f", pidx, lookup.TotalAmount, receipt.Amount)
		uc.setReceiptStatus(ctx, receipt, entity.PaymentStatusFailed)
		return nil, errors.BadRequest("Paid amount does not match the rental total", nil)
	}

	if status != entity.PaymentStatusCompleted {
		uc.setReceiptStatus(ctx, receipt, status)
		return &OnlinePaymentResult{Receipt: receipt}, nil
	}

	now := uc.now()
	wasPaid := receipt.PaymentStatus == entity.PaymentStatusCompleted
	listing, err := transactListing(ctx, uc.listingRepo, receipt.ListingID, completeOnline(receipt.RenterID))
	if err != nil {
		return nil, err
	}
	uc.setReceiptStatus(ctx, receipt, entity.PaymentStatusCompleted)

	if !wasPaid {
		notify(ctx, uc.notifier, listing.OwnerID, listing.ID, KindPayment, "Payment received",
			fmt.Sprintf("The renter paid for %s through Khalti.", listing.Title))
		publish(ctx, uc.events, entity.RentalEventPaid, listing, receipt.RenterID, now)
	}
	return &OnlinePaymentResult{Receipt: receipt, Listing: listing}, nil
}

func (uc *RentalUseCase) setReceiptStatus(ctx context.Context, receipt *entity.Transaction, status string) {
	if receipt.PaymentStatus == status {
		return
	}
	if err := uc.transactionRepo.UpdatePaymentStatus(ctx, receipt.ID, status); err != nil {
		logger.LogTransactionError(receipt.ListingID, "update_receipt", err)
		return
	}
	receipt.PaymentStatus = status
}

func receiptStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case service.GatewayStatusCompleted:
		return entity.PaymentStatusCompleted
	case service.GatewayStatusRefunded:
		return entity.PaymentStatusRefunded
	case service.GatewayStatusExpired, service.GatewayStatusCanceled:
		return entity.PaymentStatusFailed
	default:
		return entity.PaymentStatusPending
	}
}
