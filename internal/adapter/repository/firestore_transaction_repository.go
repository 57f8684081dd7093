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
)

const transactionsCollection = "transactions"

type firestoreTransactionRepository struct {
	client *firestore.Client
}

func NewFirestoreTransactionRepository(client *firestore.Client) repository.TransactionRepository {
	return &firestoreTransactionRepository{
		client: client,
	}
}

func (r *firestoreTransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	_, err := r.client.Collection(transactionsCollection).Doc(transaction.ID).Create(ctx, transaction)
	if err != nil {
		return errors.Internal("Failed to create transaction", err)
	}

	return nil
}

func (r *firestoreTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	doc, err := r.client.Collection(transactionsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Transaction", err)
		}
		return nil, errors.Internal("Failed to get transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}

	return &transaction, nil
}

func (r *firestoreTransactionRepository) GetByPidx(ctx context.Context, pidx string) (*entity.Transaction, error) {
	iter := r.client.Collection(transactionsCollection).Where("pidx", "==", pidx).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Transaction", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}

	return &transaction, nil
}

// UpdatePaymentStatus only touches paymentStatus and updatedAt.
func (r *firestoreTransactionRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	_, err := r.client.Collection(transactionsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "paymentStatus", Value: paymentStatus},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Transaction", err)
		}
		return errors.Internal("Failed to update transaction", err)
	}

	return nil
}

func (r *firestoreTransactionRepository) ListByListingID(ctx context.Context, listingID string) ([]*entity.Transaction, error) {
	docs, err := r.client.Collection(transactionsCollection).
		Where("listingId", "==", listingID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch transactions", err)
	}

	return parseTransactions(docs)
}

// ListByUserID returns receipts where the user is renter or owner, newest first.
func (r *firestoreTransactionRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error) {
	query := r.client.Collection(transactionsCollection).WhereEntity(firestore.OrFilter{
		Filters: []firestore.EntityFilter{
			firestore.PropertyFilter{Path: "renterId", Operator: "==", Value: userID},
			firestore.PropertyFilter{Path: "ownerId", Operator: "==", Value: userID},
		},
	}).OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch transactions", err)
	}
	total := int64(len(allDocs))

	start, end := window(len(allDocs), offset, limit)
	transactions, err := parseTransactions(allDocs[start:end])
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func parseTransactions(docs []*firestore.DocumentSnapshot) ([]*entity.Transaction, error) {
	transactions := make([]*entity.Transaction, 0, len(docs))
	for _, doc := range docs {
		var transaction entity.Transaction
		if err := doc.DataTo(&transaction); err != nil {
			return nil, errors.Internal("Failed to parse transaction data", err)
		}
		transactions = append(transactions, &transaction)
	}
	return transactions, nil
}
