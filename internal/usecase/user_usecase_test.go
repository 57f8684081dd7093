package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/infrastructure/storage"
	"rentalhub/pkg/errors"
)

type staticEmails map[string]string

func (e staticEmails) GetEmail(ctx context.Context, uid string) (string, error) {
	return e[uid], nil
}

func newUserFixture() (testStores, *recordingNotifier, *UserUseCase) {
	stores := newTestStores()
	notifier := &recordingNotifier{}
	uc := NewUserUseCase(stores.users, storage.NewMemoryStorage(), staticEmails{"u1": "u1@example.com"}, notifier, stubLimiter{})
	return stores, notifier, uc
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	_, _, uc := newUserFixture()
	ctx := context.Background()

	user, err := uc.EnsureUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, entity.KYCStatusNone, user.KYCStatus)

	_, err = uc.UpdateProfile(ctx, "u1", UpdateProfileInput{DisplayName: "Asha"})
	require.NoError(t, err)

	again, err := uc.EnsureUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.DisplayName)
}

func TestKYCFlow(t *testing.T) {
	_, notifier, uc := newUserFixture()
	ctx := context.Background()
	_, err := uc.EnsureUser(ctx, "u1")
	require.NoError(t, err)

	_, err = uc.ReviewKYC(ctx, "u1", true)
	_, msg := errors.Outcome(err)
	assert.Equal(t, MsgKYCNotPending, msg)

	_, err = uc.UploadKYCDocument(ctx, "u1", strings.NewReader("doc"), "text/plain")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	user, err := uc.UploadKYCDocument(ctx, "u1", strings.NewReader("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, entity.KYCStatusPending, user.KYCStatus)
	require.Len(t, user.KYCDocuments, 1)
	assert.True(t, strings.Contains(user.KYCDocuments[0], "private/kyc/u1/"))

	pending, total, err := uc.ListPendingKYC(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "u1", pending[0].ID)

	user, err = uc.ReviewKYC(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, user.Verified)
	assert.Equal(t, entity.KYCStatusVerified, user.KYCStatus)
	require.Len(t, notifier.to("u1"), 1)
	assert.Equal(t, KindKYC, notifier.to("u1")[0].Kind)

	_, err = uc.UploadKYCDocument(ctx, "u1", strings.NewReader("%PDF"), "application/pdf")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestDeviceTokens(t *testing.T) {
	stores, _, uc := newUserFixture()
	ctx := context.Background()
	seedUser(t, stores.users, "u1")

	for i := 0; i < maxDeviceTokens+2; i++ {
		require.NoError(t, uc.RegisterDeviceToken(ctx, "u1", string(rune('a'+i))))
	}
	require.NoError(t, uc.RegisterDeviceToken(ctx, "u1", "l"))

	user, err := uc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, user.FCMTokens, maxDeviceTokens)
	assert.Equal(t, "c", user.FCMTokens[0])

	require.NoError(t, uc.RemoveDeviceToken(ctx, "u1", "c"))
	user, err = uc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, user.FCMTokens, "c")

	assert.True(t, errors.Is(uc.RegisterDeviceToken(ctx, "u1", " "), "BAD_REQUEST"))
}
