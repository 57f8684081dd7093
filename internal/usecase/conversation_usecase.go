package usecase

import (
	"context"
	"strings"
	"time"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

// Realtime event type for chat messages.
const EventTypeMessage = "message"

const maxMessageLength = 2000

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	listingRepo      repository.ListingRepository
	realtime         RealtimePusher
	limiter          RateLimiter
	now              func() time.Time
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	listingRepo repository.ListingRepository,
	realtime RealtimePusher,
	limiter RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		listingRepo:      listingRepo,
		realtime:         realtime,
		limiter:          limiter,
		now:              systemClock,
	}
}

type ConversationResult struct {
	Conversation *entity.Conversation `json:"conversation"`
	Message      *entity.Message      `json:"message,omitempty"`
	Created      bool                 `json:"created"`
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.BadRequest("Message content is required", nil)
	}
	if len(content) > maxMessageLength {
		return "", errors.BadRequest("Message is too long", nil)
	}
	return content, nil
}

// StartOrGetConversation finds the thread between userA and userB about a listing, creating it on first
// contact, and appends initialMessage from userA. Both directions of first contact resolve to one thread.
func (uc *ConversationUseCase) StartOrGetConversation(ctx context.Context, listingID, userA, userB, initialMessage string) (*ConversationResult, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, errors.BadRequest("A conversation needs two different participants", nil)
	}
	content, err := validateContent(initialMessage)
	if err != nil {
		return nil, err
	}
	if _, err := uc.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	if err := allow(ctx, uc.limiter, userA, "start_conversation"); err != nil {
		return nil, err
	}

	conversation, created, err := uc.findOrCreate(ctx, listingID, userA, userB)
	if err != nil {
		return nil, err
	}

	conversation, message, err := uc.appendMessage(ctx, conversation.ID, userA, content)
	if err != nil {
		return nil, err
	}
	return &ConversationResult{Conversation: conversation, Message: message, Created: created}, nil
}

func (uc *ConversationUseCase) findOrCreate(ctx context.Context, listingID, userA, userB string) (*entity.Conversation, bool, error) {
	existing, err := uc.conversationRepo.ListByListingID(ctx, listingID)
	if err != nil {
		return nil, false, err
	}
	for _, c := range existing {
		if c.Matches(userA, userB) {
			return c, false, nil
		}
	}

	conversation, created, err := uc.conversationRepo.CreateIfAbsent(ctx, entity.NewConversation(listingID, userA, userB))
	if err != nil {
		return nil, false, err
	}
	if !conversation.Matches(userA, userB) {
		return nil, false, errors.Conflict("Conversation key is taken by another pair of users")
	}
	return conversation, created, nil
}

func (uc *ConversationUseCase) SendMessage(ctx context.Context, conversationID, senderID, content string) (*ConversationResult, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := uc.participantConversation(ctx, conversationID, senderID); err != nil {
		return nil, err
	}
	if err := allow(ctx, uc.limiter, senderID, "send_message"); err != nil {
		return nil, err
	}

	conversation, message, err := uc.appendMessage(ctx, conversationID, senderID, content)
	if err != nil {
		return nil, err
	}
	return &ConversationResult{Conversation: conversation, Message: message}, nil
}

func (uc *ConversationUseCase) appendMessage(ctx context.Context, conversationID, senderID, content string) (*entity.Conversation, *entity.Message, error) {
	now := uc.now()
	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ReadBy:         []string{senderID},
		CreatedAt:      now,
	}
	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		return nil, nil, err
	}

	conversation, err := uc.conversationRepo.Transact(ctx, conversationID, func(c *entity.Conversation) error {
		c.LastMessage = content
		c.LastMessageTimestamp = now.UnixMilli()
		if c.UnreadCount == nil {
			c.UnreadCount = make(map[string]int)
		}
		c.UnreadCount[c.Other(senderID)]++
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if conversation == nil {
		return nil, nil, errors.NotFound("Conversation", nil)
	}

	if uc.realtime != nil {
		recipient := conversation.Other(senderID)
		if delivered := uc.realtime.Push(recipient, EventTypeMessage, message); delivered == 0 {
			logger.Debug("User %s offline, message %s stored only", recipient, message.ID)
		}
	}
	return conversation, message, nil
}

func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.conversationRepo.ListByUserID(ctx, userID, limit, offset)
}

// GetMessages returns the thread oldest first. Only participants may read it.
func (uc *ConversationUseCase) GetMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]*entity.Message, int64, error) {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return uc.conversationRepo.ListMessages(ctx, conversationID, limit, offset)
}

// MarkConversationRead resets the reader's unread counter.
func (uc *ConversationUseCase) MarkConversationRead(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.Transact(ctx, conversationID, func(c *entity.Conversation) error {
		if !c.HasParticipant(userID) {
			return errors.Forbidden("You are not part of this conversation", nil)
		}
		if c.UnreadCount == nil {
			c.UnreadCount = make(map[string]int)
		}
		c.UnreadCount[userID] = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversation, nil
}

func (uc *ConversationUseCase) participantConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not part of this conversation", nil)
	}
	return conversation, nil
}
