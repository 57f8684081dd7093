package entity

// RentalStatus is the position of a listing in the request → return lifecycle.
// The zero value is Idle.
type RentalStatus string

const (
	RentalStatusIdle      RentalStatus = ""
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusApproved  RentalStatus = "approved"
	RentalStatusPaid      RentalStatus = "paid"
	RentalStatusRented    RentalStatus = "rented"
	RentalStatusReturning RentalStatus = "returning"
)

var rentalStatuses = map[RentalStatus]bool{
	RentalStatusIdle:      true,
	RentalStatusPending:   true,
	RentalStatusApproved:  true,
	RentalStatusPaid:      true,
	RentalStatusRented:    true,
	RentalStatusReturning: true,
}

// ParseRentalStatus returns the status for s and whether s is a known value.
func ParseRentalStatus(s string) (RentalStatus, bool) {
	status := RentalStatus(s)
	return status, rentalStatuses[status]
}

func (s RentalStatus) Valid() bool {
	return rentalStatuses[s]
}

func (s RentalStatus) IsIdle() bool {
	return s == RentalStatusIdle
}

// PostHandover reports whether the item is reserved or physically out with the renter.
func (s RentalStatus) PostHandover() bool {
	return s == RentalStatusPaid || s == RentalStatusRented || s == RentalStatusReturning
}

func (s RentalStatus) String() string {
	if s == RentalStatusIdle {
		return "idle"
	}
	return string(s)
}
