package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
)

type fakePush struct {
	sent  [][]string
	stale []string
	err   error
}

func (p *fakePush) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	p.sent = append(p.sent, append([]string(nil), tokens...))
	return p.stale, p.err
}

func TestSendListingNotificationSavesAndPushes(t *testing.T) {
	stores := newTestStores()
	ctx := context.Background()
	seedUser(t, stores.users, "u1", func(u *entity.User) { u.FCMTokens = []string{"t1", "t2"} })
	pusher := newRecordingPusher("u1")
	push := &fakePush{stale: []string{"t2"}}
	uc := NewNotificationUseCase(stores.notifications, stores.users, pusher, push)

	ok, info := uc.SendListingNotification(ctx, "u1", "L", KindRental, "New rental request", "Someone wants your tent")
	assert.True(t, ok)
	assert.Equal(t, "Notification saved and sent to 1 socket(s) and 1 device(s)", info)

	items, total, err := uc.ListNotifications(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "L", items[0].ListingID)
	assert.Equal(t, KindRental, items[0].Type)
	assert.False(t, items[0].Read)

	user, err := stores.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, user.FCMTokens)

	require.NoError(t, uc.MarkRead(ctx, "u1", items[0].ID))
	items, _, err = uc.ListNotifications(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.True(t, items[0].Read)

	assert.Error(t, uc.MarkRead(ctx, "someone-else", items[0].ID))
}

func TestSendAndSaveNotificationSurvivesPushFailure(t *testing.T) {
	stores := newTestStores()
	ctx := context.Background()
	seedUser(t, stores.users, "u1", func(u *entity.User) { u.FCMTokens = []string{"t1"} })
	uc := NewNotificationUseCase(stores.notifications, stores.users, newRecordingPusher(), &fakePush{err: fmt.Errorf("fcm down")})

	ok, info := uc.SendAndSaveNotification(ctx, "u1", "Title", "Body")
	assert.True(t, ok)
	assert.Equal(t, "Notification saved", info)

	_, total, err := uc.ListNotifications(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestNotificationUseCaseDrivesRentalNotifications(t *testing.T) {
	stores := newTestStores()
	ctx := context.Background()
	seedUser(t, stores.users, "owner")
	seedListing(t, stores.listings, "L", "owner")

	notifications := NewNotificationUseCase(stores.notifications, stores.users, nil, nil)
	rentals := NewRentalUseCase(stores.listings, stores.transactions, nil, notifications, nil, nil)

	_, err := rentals.PlaceRentalRequest(ctx, "L", "renter", 2)
	require.NoError(t, err)

	items, _, err := notifications.ListNotifications(ctx, "owner", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New rental request", items[0].Title)
	assert.Equal(t, KindRental, items[0].Type)
}
