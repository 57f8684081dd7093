package usecase

import (
	"context"
	"math"
	"sort"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
)

const (
	MaxRating = 5.0

	MsgRateOwnListing = "You cannot rate your own product"
)

type RatingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewRatingUseCase(listingRepo repository.ListingRepository) *RatingUseCase {
	return &RatingUseCase{listingRepo: listingRepo}
}

func applyRating(userID string, rating float64) repository.ListingMutation {
	return func(l *entity.Listing) error {
		if l.OwnerID == userID {
			return errors.Aborted(MsgRateOwnListing)
		}
		if l.RatedBy == nil {
			l.RatedBy = make(map[string]float64)
		}
		if rating > 0 {
			l.RatedBy[userID] = rating
		} else {
			delete(l.RatedBy, userID)
		}
		l.RatingCount, l.Rating = aggregate(l.RatedBy)
		return nil
	}
}

// aggregate sums in key order so the mean does not depend on map iteration.
func aggregate(ratedBy map[string]float64) (int, float64) {
	if len(ratedBy) == 0 {
		return 0, 0
	}
	users := make([]string, 0, len(ratedBy))
	for id := range ratedBy {
		users = append(users, id)
	}
	sort.Strings(users)

	var sum float64
	for _, id := range users {
		sum += ratedBy[id]
	}
	return len(users), sum / float64(len(users))
}

// UpdateRating upserts the caller's rating, or retracts it when rating <= 0,
// and recomputes count and mean in the same transaction.
func (uc *RatingUseCase) UpdateRating(ctx context.Context, listingID, userID string, rating float64) (*entity.Listing, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) || rating > MaxRating {
		return nil, errors.BadRequest("Rating must be at most 5", nil)
	}
	return transactListing(ctx, uc.listingRepo, listingID, applyRating(userID, rating))
}
