package entity

const (
	RentalEventRequested        = "rental.requested"
	RentalEventCancelled        = "rental.cancelled"
	RentalEventApproved         = "rental.approved"
	RentalEventRejected         = "rental.rejected"
	RentalEventPaid             = "rental.paid"
	RentalEventHandedOver       = "rental.handed_over"
	RentalEventReturnRequested  = "rental.return_requested"
	RentalEventReturnVerified   = "rental.return_verified"
	RentalEventEnded            = "rental.ended"
	RentalEventFlaggedForReview = "listing.flagged_for_review"
	RentalEventFlagsCleared     = "listing.flags_cleared"
)

// RentalEvent is published after a listing transition commits.
type RentalEvent struct {
	Type       string `json:"type"`
	ListingID  string `json:"listing_id"`
	OwnerID    string `json:"owner_id"`
	RenterID   string `json:"renter_id,omitempty"`
	Status     string `json:"status"`
	OccurredAt int64  `json:"occurred_at"` // epoch ms
}
