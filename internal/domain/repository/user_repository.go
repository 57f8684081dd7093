package repository

import (
	"context"

	"rentalhub/internal/domain/entity"
)

type UserMutation func(user *entity.User) error

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// Transact has the same contract as ListingRepository.Transact.
	Transact(ctx context.Context, id string, fn UserMutation) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	ListByKYCStatus(ctx context.Context, status string, limit, offset int) ([]*entity.User, int64, error)
}
