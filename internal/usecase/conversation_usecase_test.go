package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
	"rentalhub/pkg/errors"
)

func newConversationFixture(online ...string) (testStores, *recordingPusher, *ConversationUseCase) {
	stores := newTestStores()
	pusher := newRecordingPusher(online...)
	uc := NewConversationUseCase(stores.conversations, stores.listings, pusher, stubLimiter{})
	uc.now = func() time.Time { return testNow }
	return stores, pusher, uc
}

func TestStartOrGetConversationReusesThread(t *testing.T) {
	stores, pusher, uc := newConversationFixture("owner")
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	first, err := uc.StartOrGetConversation(ctx, "L", "renter", "owner", "Is it free this weekend?")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, entity.ConversationKey("L", "renter", "owner"), first.Conversation.ID)
	assert.Equal(t, 1, first.Conversation.UnreadCount["owner"])

	second, err := uc.StartOrGetConversation(ctx, "L", "owner", "renter", "Yes it is")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)
	assert.Equal(t, "Yes it is", second.Conversation.LastMessage)
	assert.Equal(t, testNow.UnixMilli(), second.Conversation.LastMessageTimestamp)
	assert.Equal(t, 1, second.Conversation.UnreadCount["renter"])

	messages, total, err := uc.GetMessages(ctx, first.Conversation.ID, "renter", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Is it free this weekend?", messages[0].Content)
	assert.Equal(t, "Yes it is", messages[1].Content)

	assert.Equal(t, []string{EventTypeMessage}, pusher.pushes["owner"])
	assert.Equal(t, []string{EventTypeMessage}, pusher.pushes["renter"])
}

func TestUnderscoreUserIDsGetSeparateConversations(t *testing.T) {
	stores, _, uc := newConversationFixture()
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	first, err := uc.StartOrGetConversation(ctx, "L", "x_y", "z", "from x_y")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := uc.StartOrGetConversation(ctx, "L", "x", "y_z", "from x")
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.Conversation.ID, second.Conversation.ID)
	assert.True(t, second.Conversation.Matches("x", "y_z"))

	stored, err := stores.conversations.GetByID(ctx, first.Conversation.ID)
	require.NoError(t, err)
	assert.True(t, stored.Matches("x_y", "z"))
	assert.Equal(t, "from x_y", stored.LastMessage)

	conversations, err := stores.conversations.ListByListingID(ctx, "L")
	require.NoError(t, err)
	assert.Len(t, conversations, 2)
}

func TestStartConversationRejectsKeyHeldByOtherPair(t *testing.T) {
	stores, _, uc := newConversationFixture()
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	squatter := entity.NewConversation("L", "a", "c")
	squatter.ID = entity.ConversationKey("L", "a", "b")
	_, _, err := stores.conversations.CreateIfAbsent(ctx, squatter)
	require.NoError(t, err)

	_, err = uc.StartOrGetConversation(ctx, "L", "a", "b", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, total, err := stores.conversations.ListMessages(ctx, squatter.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestConcurrentFirstContactCreatesOneConversation(t *testing.T) {
	stores, _, uc := newConversationFixture()
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := uc.StartOrGetConversation(ctx, "L", "a", "b", "hi from a")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := uc.StartOrGetConversation(ctx, "L", "b", "a", "hi from b")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conversations, err := stores.conversations.ListByListingID(ctx, "L")
	require.NoError(t, err)
	require.Len(t, conversations, 1)

	_, total, err := stores.conversations.ListMessages(ctx, conversations[0].ID, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 20, total)
	assert.Equal(t, 20, conversations[0].UnreadCount["a"]+conversations[0].UnreadCount["b"])
}

func TestStartConversationValidation(t *testing.T) {
	stores, _, uc := newConversationFixture()
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	_, err := uc.StartOrGetConversation(ctx, "L", "a", "a", "hello")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.StartOrGetConversation(ctx, "L", "a", "owner", "   ")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.StartOrGetConversation(ctx, "missing", "a", "owner", "hello")
	assert.True(t, errors.IsNotFound(err))

	uc.limiter = stubLimiter{deny: map[string]bool{"start_conversation": true}}
	_, err = uc.StartOrGetConversation(ctx, "L", "a", "owner", "hello")
	assert.True(t, errors.Is(err, "TOO_MANY_REQUESTS"))
}

func TestSendMessageAndMarkRead(t *testing.T) {
	stores, _, uc := newConversationFixture()
	ctx := context.Background()
	seedListing(t, stores.listings, "L", "owner")

	started, err := uc.StartOrGetConversation(ctx, "L", "renter", "owner", "hello")
	require.NoError(t, err)
	id := started.Conversation.ID

	_, err = uc.SendMessage(ctx, id, "renter", "are you there?")
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, id, "stranger", "let me in")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, _, err = uc.GetMessages(ctx, id, "stranger", 10, 0)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	list, total, err := uc.ListConversations(ctx, "owner", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, 2, list[0].UnreadCount["owner"])

	read, err := uc.MarkConversationRead(ctx, id, "owner")
	require.NoError(t, err)
	assert.Zero(t, read.UnreadCount["owner"])

	_, err = uc.MarkConversationRead(ctx, "nope", "owner")
	assert.True(t, errors.IsNotFound(err))
}
