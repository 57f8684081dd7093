package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/memstore"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

type memoryConversationRepository struct {
	conversations *memstore.Collection[*entity.Conversation]

	mu       sync.RWMutex
	messages map[string][]*entity.Message
}

func NewMemoryConversationRepository() repository.ConversationRepository {
	return &memoryConversationRepository{
		conversations: memstore.NewCollection((*entity.Conversation).Clone),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	conversation, ok := r.conversations.Get(id)
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversation, nil
}

func (r *memoryConversationRepository) ListByListingID(ctx context.Context, listingID string) ([]*entity.Conversation, error) {
	return r.conversations.Query(func(c *entity.Conversation) bool { return c.ListingID == listingID }), nil
}

func (r *memoryConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	conversations := r.conversations.Query(func(c *entity.Conversation) bool { return c.HasParticipant(userID) })
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTimestamp > conversations[j].LastMessageTimestamp
	})

	start, end := utils.Window(len(conversations), offset, limit)
	return conversations[start:end], int64(len(conversations)), nil
}

func (r *memoryConversationRepository) CreateIfAbsent(ctx context.Context, conversation *entity.Conversation) (*entity.Conversation, bool, error) {
	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	stored, created := r.conversations.CreateIfAbsent(conversation.ID, conversation)
	return stored, created, nil
}

func (r *memoryConversationRepository) Transact(ctx context.Context, id string, fn repository.ConversationMutation) (*entity.Conversation, error) {
	conversation, found, err := r.conversations.Transact(ctx, id, func(c *entity.Conversation) error {
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now()
		return nil
	})
	return transactResult(conversation, found, err, "Failed to update conversation")
}

func (r *memoryConversationRepository) DeleteByListingID(ctx context.Context, listingID string) error {
	conversations, _ := r.ListByListingID(ctx, listingID)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range conversations {
		r.conversations.Delete(c.ID)
		delete(r.messages, c.ID)
	}
	return nil
}

func (r *memoryConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], message.Clone())
	return nil
}

func (r *memoryConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[conversationID]
	start, end := utils.Window(len(all), offset, limit)
	out := make([]*entity.Message, 0, end-start)
	for _, m := range all[start:end] {
		out = append(out, m.Clone())
	}
	return out, int64(len(all)), nil
}
