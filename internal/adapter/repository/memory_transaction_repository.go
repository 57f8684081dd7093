package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/memstore"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

type memoryTransactionRepository struct {
	transactions *memstore.Collection[*entity.Transaction]
}

func NewMemoryTransactionRepository() repository.TransactionRepository {
	return &memoryTransactionRepository{
		transactions: memstore.NewCollection((*entity.Transaction).Clone),
	}
}

func (r *memoryTransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	if err := r.transactions.Insert(transaction.ID, transaction); err != nil {
		return errors.Internal("Failed to create transaction", err)
	}
	return nil
}

func (r *memoryTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	transaction, ok := r.transactions.Get(id)
	if !ok {
		return nil, errors.NotFound("Transaction", nil)
	}
	return transaction, nil
}

func (r *memoryTransactionRepository) GetByPidx(ctx context.Context, pidx string) (*entity.Transaction, error) {
	matches := r.transactions.Query(func(t *entity.Transaction) bool { return t.Pidx == pidx })
	if len(matches) == 0 {
		return nil, errors.NotFound("Transaction", nil)
	}
	return matches[0], nil
}

func (r *memoryTransactionRepository) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	_, found, err := r.transactions.Transact(ctx, id, func(t *entity.Transaction) error {
		t.PaymentStatus = status
		t.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return errors.Internal("Failed to update transaction", err)
	}
	if !found {
		return errors.NotFound("Transaction", nil)
	}
	return nil
}

func (r *memoryTransactionRepository) ListByListingID(ctx context.Context, listingID string) ([]*entity.Transaction, error) {
	transactions := r.transactions.Query(func(t *entity.Transaction) bool { return t.ListingID == listingID })
	sortNewestFirst(transactions)
	return transactions, nil
}

func (r *memoryTransactionRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error) {
	transactions := r.transactions.Query(func(t *entity.Transaction) bool {
		return t.RenterID == userID || t.OwnerID == userID
	})
	sortNewestFirst(transactions)

	start, end := utils.Window(len(transactions), offset, limit)
	return transactions[start:end], int64(len(transactions)), nil
}

func sortNewestFirst(transactions []*entity.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
}
