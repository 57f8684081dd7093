package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/domain/service"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const (
	MsgKYCNotPending      = "KYC review requires a pending submission"
	MsgKYCAlreadyVerified = "User is already verified"

	maxDeviceTokens = 10
)

// EmailResolver looks up the sign-in email of an identity.
type EmailResolver interface {
	GetEmail(ctx context.Context, uid string) (string, error)
}

type UserUseCase struct {
	userRepo repository.UserRepository
	files    service.FileUploadService
	emails   EmailResolver
	notifier NotificationSender
	limiter  RateLimiter
}

func NewUserUseCase(
	userRepo repository.UserRepository,
	files service.FileUploadService,
	emails EmailResolver,
	notifier NotificationSender,
	limiter RateLimiter,
) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		files:    files,
		emails:   emails,
		notifier: notifier,
		limiter:  limiter,
	}
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=80"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
}

// EnsureUser returns the account for uid, creating it on the first authenticated request.
func (uc *UserUseCase) EnsureUser(ctx context.Context, uid string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	user = &entity.User{
		ID:           uid,
		Role:         entity.RoleUser,
		KYCStatus:    entity.KYCStatusNone,
		KYCDocuments: []string{},
	}
	if uc.emails != nil {
		if email, err := uc.emails.GetEmail(ctx, uid); err == nil {
			user.Email = email
		} else {
			logger.Warn("Failed to resolve email for %s: %v", uid, err)
		}
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return uc.userRepo.GetByID(ctx, uid)
		}
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, uid string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, uid)
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.User, error) {
	return transactUser(ctx, uc.userRepo, uid, func(u *entity.User) error {
		if name := strings.TrimSpace(input.DisplayName); name != "" {
			u.DisplayName = name
		}
		if input.Phone != "" {
			u.Phone = input.Phone
		}
		return nil
	})
}

// UploadKYCDocument stores a private identity document and puts the account into review.
func (uc *UserUseCase) UploadKYCDocument(ctx context.Context, uid string, file io.Reader, contentType string) (*entity.User, error) {
	if uc.files == nil {
		return nil, errors.BadRequest("File uploads are not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return nil, errors.BadRequest("KYC documents must be images or PDF", nil)
	}
	if err := allow(ctx, uc.limiter, uid, "upload"); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.KYCStatus == entity.KYCStatusVerified {
		return nil, errors.BadRequest(MsgKYCAlreadyVerified, nil)
	}

	url, err := uc.files.UploadFile(ctx, file, contentType, "kyc/"+uid, false)
	if err != nil {
		return nil, errors.Internal("Failed to upload document", err)
	}

	updated, err := transactUser(ctx, uc.userRepo, uid, func(u *entity.User) error {
		if u.KYCStatus == entity.KYCStatusVerified {
			return errors.Aborted(MsgKYCAlreadyVerified)
		}
		u.KYCDocuments = appendUnique(u.KYCDocuments, url)
		u.KYCStatus = entity.KYCStatusPending
		return nil
	})
	if err != nil {
		if delErr := uc.files.DeleteFile(ctx, url); delErr != nil {
			logger.Warn("Failed to delete orphaned document %s: %v", url, delErr)
		}
		return nil, err
	}
	return updated, nil
}

// ReviewKYC approves or rejects a pending submission.
func (uc *UserUseCase) ReviewKYC(ctx context.Context, uid string, approve bool) (*entity.User, error) {
	user, err := transactUser(ctx, uc.userRepo, uid, func(u *entity.User) error {
		if u.KYCStatus != entity.KYCStatusPending {
			return errors.Aborted(MsgKYCNotPending)
		}
		u.Verified = approve
		if approve {
			u.KYCStatus = entity.KYCStatusVerified
		} else {
			u.KYCStatus = entity.KYCStatusRejected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	body := "Your identity documents were verified."
	if !approve {
		body = "Your identity documents were rejected. Please upload new documents."
	}
	notify(ctx, uc.notifier, uid, "", KindKYC, fmt.Sprintf("KYC %s", user.KYCStatus), body)
	return user, nil
}

func (uc *UserUseCase) ListPendingKYC(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	return uc.userRepo.ListByKYCStatus(ctx, entity.KYCStatusPending, limit, offset)
}

// RegisterDeviceToken keeps the newest tokens for push delivery.
func (uc *UserUseCase) RegisterDeviceToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.BadRequest("Device token is required", nil)
	}
	_, err := transactUser(ctx, uc.userRepo, uid, func(u *entity.User) error {
		u.FCMTokens = appendUnique(u.FCMTokens, token)
		if extra := len(u.FCMTokens) - maxDeviceTokens; extra > 0 {
			u.FCMTokens = u.FCMTokens[extra:]
		}
		return nil
	})
	return err
}

func (uc *UserUseCase) RemoveDeviceToken(ctx context.Context, uid, token string) error {
	_, err := transactUser(ctx, uc.userRepo, uid, removeTokens([]string{token}))
	return err
}
