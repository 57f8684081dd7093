package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/errors"
)

func TestRatingAverages(t *testing.T) {
	stores := newTestStores()
	uc := NewRatingUseCase(stores.listings)
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	for user, rating := range map[string]float64{"u1": 4, "u2": 5, "u3": 3} {
		_, err := uc.UpdateRating(ctx, "L", user, rating)
		require.NoError(t, err)
	}

	listing := mustGetListing(t, stores.listings, "L")
	assert.Equal(t, 3, listing.RatingCount)
	assert.InDelta(t, 4.0, listing.Rating, 1e-9)

	listing, err := uc.UpdateRating(ctx, "L", "u3", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.RatingCount)
	assert.InDelta(t, 4.5, listing.Rating, 1e-9)
}

func TestRatingRoundTrip(t *testing.T) {
	stores := newTestStores()
	uc := NewRatingUseCase(stores.listings)
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	_, err := uc.UpdateRating(ctx, "L", "u1", 2)
	require.NoError(t, err)
	before := mustGetListing(t, stores.listings, "L")

	for _, r := range []float64{1, 3.5, 5} {
		_, err := uc.UpdateRating(ctx, "L", "u2", r)
		require.NoError(t, err)
		_, err = uc.UpdateRating(ctx, "L", "u2", -1)
		require.NoError(t, err)

		after := mustGetListing(t, stores.listings, "L")
		assert.Equal(t, before.RatingCount, after.RatingCount)
		assert.InDelta(t, before.Rating, after.Rating, 1e-9)
		assert.Equal(t, before.RatedBy, after.RatedBy)
	}
}

func TestRatingUpsertAndRetractToEmpty(t *testing.T) {
	stores := newTestStores()
	uc := NewRatingUseCase(stores.listings)
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	_, err := uc.UpdateRating(ctx, "L", "u1", 2)
	require.NoError(t, err)
	listing, err := uc.UpdateRating(ctx, "L", "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.RatingCount)
	assert.Equal(t, 4.0, listing.Rating)

	listing, err = uc.UpdateRating(ctx, "L", "u1", 0)
	require.NoError(t, err)
	assert.Zero(t, listing.RatingCount)
	assert.Zero(t, listing.Rating)

	// retracting a rating that does not exist is a no-op
	listing, err = uc.UpdateRating(ctx, "L", "u1", 0)
	require.NoError(t, err)
	assert.Zero(t, listing.RatingCount)
}

func TestRatingValidation(t *testing.T) {
	stores := newTestStores()
	uc := NewRatingUseCase(stores.listings)
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	for _, bad := range []float64{5.5, math.NaN(), math.Inf(1)} {
		_, err := uc.UpdateRating(ctx, "L", "u1", bad)
		assert.True(t, errors.Is(err, "BAD_REQUEST"), "rating %v", bad)
	}

	_, err := uc.UpdateRating(ctx, "L", "owner", 5)
	assert.True(t, errors.IsAborted(err))

	_, err = uc.UpdateRating(ctx, "missing", "u1", 5)
	assert.True(t, errors.IsNotFound(err))
}
