package entity

import (
	"time"
)

const (
	PaymentMethodCash   = "Cash on Delivery"
	PaymentMethodKhalti = "Khalti"

	// DayMillis is the length of one rental day in the rentalEndDate arithmetic.
	DayMillis int64 = 86400000
)

type ListingImage struct {
	URL          string `json:"url" firestore:"url"`
	DisplayOrder int    `json:"display_order" firestore:"displayOrder"`
}

type Listing struct {
	ID          string         `json:"id" firestore:"id"`
	OwnerID     string         `json:"owner_id" firestore:"ownerId"`
	Title       string         `json:"title" firestore:"title"`
	Description string         `json:"description" firestore:"description"`
	Category    string         `json:"category" firestore:"category"`
	PriceBase   float64        `json:"price_base" firestore:"priceBase"`
	Quantity    int            `json:"quantity" firestore:"quantity"`
	Images      []ListingImage `json:"images" firestore:"images"`

	Available  bool `json:"available" firestore:"available"`
	OutOfStock bool `json:"out_of_stock" firestore:"outOfStock"`
	Verified   bool `json:"verified" firestore:"verified"`

	Rating      float64            `json:"rating" firestore:"rating"`
	RatingCount int                `json:"rating_count" firestore:"ratingCount"`
	RatedBy     map[string]float64 `json:"rated_by" firestore:"ratedBy"`

	// Moderation
	Flagged       bool     `json:"flagged" firestore:"flagged"`
	FlaggedBy     []string `json:"flagged_by" firestore:"flaggedBy"`
	FlaggedReason []string `json:"flagged_reason" firestore:"flaggedReason"`
	ReportCount   int      `json:"report_count" firestore:"reportCount"` // len(FlaggedBy), kept for queries
	AppealReason  string   `json:"appeal_reason" firestore:"appealReason"`

	// Rental
	RentalStatus      RentalStatus `json:"rental_status" firestore:"rentalStatus"`
	RentalRequesterID string       `json:"rental_requester_id" firestore:"rentalRequesterId"`
	RentalDays        int          `json:"rental_days" firestore:"rentalDays"`
	RentalStartDate   int64        `json:"rental_start_date" firestore:"rentalStartDate"` // epoch ms
	RentalEndDate     int64        `json:"rental_end_date" firestore:"rentalEndDate"`     // epoch ms
	PickupLocation    string       `json:"pickup_location" firestore:"pickupLocation"`
	PaymentMethod     string       `json:"payment_method" firestore:"paymentMethod"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Clone returns a deep copy so transaction bodies never alias stored state.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	if l.Images != nil {
		c.Images = append([]ListingImage(nil), l.Images...)
	}
	if l.RatedBy != nil {
		c.RatedBy = make(map[string]float64, len(l.RatedBy))
		for k, v := range l.RatedBy {
			c.RatedBy[k] = v
		}
	}
	if l.FlaggedBy != nil {
		c.FlaggedBy = append([]string(nil), l.FlaggedBy...)
	}
	if l.FlaggedReason != nil {
		c.FlaggedReason = append([]string(nil), l.FlaggedReason...)
	}
	return &c
}

// RentalTotal is the amount charged for the current request.
func (l *Listing) RentalTotal() float64 {
	return l.PriceBase * float64(l.RentalDays)
}

// IsOverdue reports whether the item is still out after its agreed end date.
func (l *Listing) IsOverdue(now time.Time) bool {
	if l.RentalStatus != RentalStatusRented && l.RentalStatus != RentalStatusReturning {
		return false
	}
	return l.RentalEndDate > 0 && now.UnixMilli() > l.RentalEndDate
}

// OverdueDays counts started days past the end date.
func (l *Listing) OverdueDays(now time.Time) int {
	if !l.IsOverdue(now) {
		return 0
	}
	late := now.UnixMilli() - l.RentalEndDate
	return int((late + DayMillis - 1) / DayMillis)
}

// HasFlagFrom reports whether userID already reported the listing.
func (l *Listing) HasFlagFrom(userID string) bool {
	for _, id := range l.FlaggedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ClearRental resets every rental field back to Idle.
func (l *Listing) ClearRental() {
	l.RentalStatus = RentalStatusIdle
	l.RentalRequesterID = ""
	l.RentalDays = 0
	l.PaymentMethod = ""
	l.PickupLocation = ""
}

// RestoreAvailability recomputes Available and OutOfStock from status and flags.
func (l *Listing) RestoreAvailability() {
	l.Available = l.RentalStatus.IsIdle() && !l.Flagged
	l.OutOfStock = l.RentalStatus.PostHandover()
}
