package entity

import (
	"time"
)

const (
	PaymentStatusInitiated = "Initiated"
	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
	PaymentStatusFailed    = "Failed"
	PaymentStatusRefunded  = "Refunded"
)

// Transaction is the payment receipt for one rental. Only PaymentStatus changes after creation.
type Transaction struct {
	ID            string    `json:"id" firestore:"id"`
	ListingID     string    `json:"listing_id" firestore:"listingId"`
	RenterID      string    `json:"renter_id" firestore:"renterId"`
	OwnerID       string    `json:"owner_id" firestore:"ownerId"`
	Amount        float64   `json:"amount" firestore:"amount"`
	Days          int       `json:"days" firestore:"days"`
	PaymentMethod string    `json:"payment_method" firestore:"paymentMethod"`
	PaymentStatus string    `json:"payment_status" firestore:"paymentStatus"`
	Pidx          string    `json:"pidx,omitempty" firestore:"pidx,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
