package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
)

func TestHandleDelivery(t *testing.T) {
	var got entity.RentalEvent
	err := HandleDelivery(context.Background(),
		[]byte(`{"type":"rental.approved","listing_id":"l1","owner_id":"o1","renter_id":"u1","status":"approved","occurred_at":1700000000000}`),
		func(ctx context.Context, e entity.RentalEvent) error {
			got = e
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, entity.RentalEventApproved, got.Type)
	assert.Equal(t, "u1", got.RenterID)
	assert.Equal(t, int64(1700000000000), got.OccurredAt)
}

func TestHandleDeliveryRejectsBadPayloads(t *testing.T) {
	noop := func(ctx context.Context, e entity.RentalEvent) error { return nil }

	assert.Error(t, HandleDelivery(context.Background(), []byte(`not json`), noop))
	assert.Error(t, HandleDelivery(context.Background(), []byte(`{"type":"rental.approved"}`), noop))

	boom := errors.New("boom")
	err := HandleDelivery(context.Background(), []byte(`{"type":"x","listing_id":"l1"}`),
		func(ctx context.Context, e entity.RentalEvent) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), entity.RentalEvent{Type: "x", ListingID: "l1"}))
	assert.NoError(t, p.Close())
}
