package repository

import (
	"context"
	"time"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/memstore"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

type memoryUserRepository struct {
	users *memstore.Collection[*entity.User]
}

func NewMemoryUserRepository() repository.UserRepository {
	return &memoryUserRepository{
		users: memstore.NewCollection((*entity.User).Clone),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := r.users.Insert(user.ID, user); err != nil {
		return errors.Conflict("User already exists")
	}
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users.Get(id)
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *memoryUserRepository) Transact(ctx context.Context, id string, fn repository.UserMutation) (*entity.User, error) {
	user, found, err := r.users.Transact(ctx, id, func(user *entity.User) error {
		if err := fn(user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now()
		return nil
	})
	return transactResult(user, found, err, "Failed to update user")
}

func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	r.users.Delete(id)
	return nil
}

func (r *memoryUserRepository) ListByKYCStatus(ctx context.Context, kycStatus string, limit, offset int) ([]*entity.User, int64, error) {
	users := r.users.Query(func(u *entity.User) bool { return u.KYCStatus == kycStatus })
	start, end := utils.Window(len(users), offset, limit)
	return users[start:end], int64(len(users)), nil
}
