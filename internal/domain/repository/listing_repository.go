package repository

import (
	"context"

	"rentalhub/internal/domain/entity"
)

// ListingMutation is applied to the latest committed listing inside a transaction.
// It must be free of side effects: the store may call it more than once.
// Returning an error aborts the transaction and nothing is written.
type ListingMutation func(listing *entity.Listing) error

type ListingFilter struct {
	OwnerID       string
	Category      string
	AvailableOnly bool
	Flagged       *bool
	Reported      bool
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// Transact runs fn against the stored listing and commits the result atomically.
	// A missing listing commits nothing and returns (nil, nil).
	Transact(ctx context.Context, id string, fn ListingMutation) (*entity.Listing, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListingFilter, limit, offset int) ([]*entity.Listing, int64, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*entity.Listing, error)
	// Watch streams the listing on every committed change until ctx is done.
	// The channel is closed when the subscription ends.
	Watch(ctx context.Context, id string) (<-chan *entity.Listing, error)
}
