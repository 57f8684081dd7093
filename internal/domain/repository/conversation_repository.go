package repository

import (
	"context"

	"rentalhub/internal/domain/entity"
)

type ConversationMutation func(conversation *entity.Conversation) error

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByListingID(ctx context.Context, listingID string) ([]*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	// CreateIfAbsent writes conversation under its ID unless one already exists.
	// It returns the stored record and whether this call created it.
	CreateIfAbsent(ctx context.Context, conversation *entity.Conversation) (*entity.Conversation, bool, error)
	Transact(ctx context.Context, id string, fn ConversationMutation) (*entity.Conversation, error)
	DeleteByListingID(ctx context.Context, listingID string) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	// ListMessages returns messages oldest first.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
}
