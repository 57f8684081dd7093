package repository

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/memstore"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

type memoryListingRepository struct {
	listings *memstore.Collection[*entity.Listing]
}

func NewMemoryListingRepository() repository.ListingRepository {
	return &memoryListingRepository{
		listings: memstore.NewCollection((*entity.Listing).Clone),
	}
}

func (r *memoryListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	listing.ReportCount = len(listing.FlaggedBy)

	if err := r.listings.Insert(listing.ID, listing); err != nil {
		return errors.Conflict("Product already exists")
	}
	return nil
}

func (r *memoryListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings.Get(id)
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	return listing, nil
}

func (r *memoryListingRepository) Transact(ctx context.Context, id string, fn repository.ListingMutation) (*entity.Listing, error) {
	listing, found, err := r.listings.Transact(ctx, id, func(listing *entity.Listing) error {
		if err := fn(listing); err != nil {
			return err
		}
		listing.ReportCount = len(listing.FlaggedBy)
		listing.UpdatedAt = time.Now()
		return nil
	})
	return transactResult(listing, found, err, "Failed to update product")
}

func (r *memoryListingRepository) Delete(ctx context.Context, id string) error {
	r.listings.Delete(id)
	return nil
}

func (r *memoryListingRepository) List(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	matches := r.listings.Query(func(l *entity.Listing) bool {
		if filter.OwnerID != "" && l.OwnerID != filter.OwnerID {
			return false
		}
		if filter.Category != "" && l.Category != filter.Category {
			return false
		}
		if filter.AvailableOnly && !l.Available {
			return false
		}
		if filter.Flagged != nil && l.Flagged != *filter.Flagged {
			return false
		}
		if filter.Reported && l.ReportCount == 0 {
			return false
		}
		return true
	})

	if filter.Reported {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].ReportCount > matches[j].ReportCount })
	} else {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	}

	start, end := utils.Window(len(matches), offset, limit)
	return matches[start:end], int64(len(matches)), nil
}

func (r *memoryListingRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	return r.listings.Query(func(l *entity.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (r *memoryListingRepository) Watch(ctx context.Context, id string) (<-chan *entity.Listing, error) {
	return r.listings.Watch(ctx, id), nil
}

// transactResult maps a memstore outcome onto the repository Transact contract.
func transactResult[T any](value T, found bool, err error, failureMsg string) (T, error) {
	var zero T
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return zero, appErr
		}
		return zero, errors.Internal(failureMsg, err)
	}
	if !found {
		return zero, nil
	}
	return value, nil
}
