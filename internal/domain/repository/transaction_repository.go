package repository

import (
	"context"

	"rentalhub/internal/domain/entity"
)

// TransactionRepository stores payment receipts. Receipts are append-only apart from PaymentStatus.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	GetByPidx(ctx context.Context, pidx string) (*entity.Transaction, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	ListByListingID(ctx context.Context, listingID string) ([]*entity.Transaction, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error)
}
