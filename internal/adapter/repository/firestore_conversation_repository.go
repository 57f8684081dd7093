package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByListingID(ctx context.Context, listingID string) ([]*entity.Conversation, error) {
	iter := r.client.Collection(conversationsCollection).Where("listingId", "==", listingID).Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate conversations", err)
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection(conversationsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageTimestamp", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch conversations", err)
	}
	total := int64(len(allDocs))

	start, end := window(len(allDocs), offset, limit)
	conversations := make([]*entity.Conversation, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Error parsing conversation data for user %s: %v", userID, err)
			continue
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) CreateIfAbsent(ctx context.Context, conversation *entity.Conversation) (*entity.Conversation, bool, error) {
	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	_, err := r.client.Collection(conversationsCollection).Doc(conversation.ID).Create(ctx, conversation)
	if err == nil {
		return conversation, true, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return nil, false, errors.Internal("Failed to create conversation", err)
	}

	existing, err := r.GetByID(ctx, conversation.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *firestoreConversationRepository) Transact(ctx context.Context, id string, fn repository.ConversationMutation) (*entity.Conversation, error) {
	docRef := r.client.Collection(conversationsCollection).Doc(id)

	return transactDocument(ctx, r.client, docRef, func(conversation *entity.Conversation) error {
		conversation.ID = id
		return fn(conversation)
	}, func(conversation *entity.Conversation) {
		conversation.UpdatedAt = time.Now()
	}, "Failed to update conversation")
}

func (r *firestoreConversationRepository) DeleteByListingID(ctx context.Context, listingID string) error {
	conversations, err := r.ListByListingID(ctx, listingID)
	if err != nil {
		return err
	}

	for _, conversation := range conversations {
		ref := r.client.Collection(conversationsCollection).Doc(conversation.ID)
		msgs, err := ref.Collection(messagesCollection).Documents(ctx).GetAll()
		if err != nil {
			return errors.Internal("Failed to fetch messages", err)
		}

		bulk := r.client.BulkWriter(ctx)
		for _, msg := range msgs {
			if _, err := bulk.Delete(msg.Ref); err != nil {
				bulk.End()
				return errors.Internal("Failed to delete message", err)
			}
		}
		if _, err := bulk.Delete(ref); err != nil {
			bulk.End()
			return errors.Internal("Failed to delete conversation", err)
		}
		bulk.End()
	}

	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection(conversationsCollection).Doc(message.ConversationID).
		Collection(messagesCollection).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection(conversationsCollection).Doc(conversationID).
		Collection(messagesCollection).OrderBy("createdAt", firestore.Asc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting messages for conversation %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	start, end := window(len(countDocs), offset, limit)
	messages := make([]*entity.Message, 0, end-start)
	for _, doc := range countDocs[start:end] {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}
