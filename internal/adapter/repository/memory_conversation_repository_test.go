package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
)

func TestMemoryConversationCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()

	var wg sync.WaitGroup
	created := make(chan bool, 2)
	for _, pair := range [][2]string{{"u1", "u2"}, {"u2", "u1"}} {
		wg.Add(1)
		go func(a, b string) {
			defer wg.Done()
			_, ok, err := repo.CreateIfAbsent(ctx, entity.NewConversation("l1", a, b))
			assert.NoError(t, err)
			created <- ok
		}(pair[0], pair[1])
	}
	wg.Wait()
	close(created)

	wins := 0
	for ok := range created {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	convs, err := repo.ListByListingID(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestMemoryConversationMessagesAndCascade(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()
	conv, _, err := repo.CreateIfAbsent(ctx, entity.NewConversation("l1", "u1", "u2"))
	require.NoError(t, err)

	for _, text := range []string{"hi", "there", "again"} {
		require.NoError(t, repo.CreateMessage(ctx, &entity.Message{ConversationID: conv.ID, SenderID: "u1", Content: text}))
	}

	msgs, total, err := repo.ListMessages(ctx, conv.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "there", msgs[0].Content)

	require.NoError(t, repo.DeleteByListingID(ctx, "l1"))
	_, err = repo.GetByID(ctx, conv.ID)
	assert.Error(t, err)
	_, total, _ = repo.ListMessages(ctx, conv.ID, 10, 0)
	assert.Equal(t, int64(0), total)
}
