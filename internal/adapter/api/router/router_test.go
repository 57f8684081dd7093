package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/adapter/api"
	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/adapter/repository"
	"rentalhub/internal/domain/entity"
	domainrepo "rentalhub/internal/domain/repository"
	"rentalhub/internal/infrastructure/queue"
	"rentalhub/internal/infrastructure/ratelimit"
	"rentalhub/internal/infrastructure/storage"
	"rentalhub/internal/infrastructure/websocket"
	"rentalhub/internal/usecase"
)

const (
	ownerID  = "owner-1"
	renterID = "renter-1"
	adminID  = "admin-1"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	e     *echo.Echo
	users domainrepo.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	listings := repository.NewMemoryListingRepository()
	transactions := repository.NewMemoryTransactionRepository()
	users := repository.NewMemoryUserRepository()
	conversations := repository.NewMemoryConversationRepository()
	notifications := repository.NewMemoryNotificationRepository()
	files := storage.NewMemoryStorage()

	wsManager := websocket.NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wsManager.Start(ctx)

	notificationUseCase := usecase.NewNotificationUseCase(notifications, users, wsManager, nil)
	listingUseCase := usecase.NewListingUseCase(listings, conversations, files, nil)
	rentalUseCase := usecase.NewRentalUseCase(listings, transactions, nil, notificationUseCase, queue.NoopPublisher{}, nil)
	moderationUseCase := usecase.NewModerationUseCase(listings, users, conversations, nil, notificationUseCase, queue.NoopPublisher{}, nil)

	handler.Setup(handler.UseCases{
		Listings:      listingUseCase,
		Rentals:       rentalUseCase,
		Ratings:       usecase.NewRatingUseCase(listings),
		Moderation:    moderationUseCase,
		Conversations: usecase.NewConversationUseCase(conversations, listings, wsManager, nil),
		Notifications: notificationUseCase,
		Users:         usecase.NewUserUseCase(users, files, nil, notificationUseCase, nil),
	})
	handler.SetupHealthHandler("memory")

	require.NoError(t, users.Create(context.Background(), &entity.User{ID: adminID, Role: entity.RoleAdmin}))

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e,
		middleware.NewAuthMiddleware(middleware.DevTokenVerifier{}),
		middleware.NewAdminMiddleware(users),
		ratelimit.Disabled{},
		handler.NewWebSocketHandler(wsManager, listingUseCase),
	)

	return &testServer{e: e, users: users}
}

func (s *testServer) do(t *testing.T, method, path, uid string, body interface{}) (int, envelope) {
	t.Helper()

	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+middleware.DevToken(uid))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) createListing(t *testing.T) string {
	t.Helper()

	code, env := s.do(t, http.MethodPost, "/v1/my-listings", ownerID, map[string]interface{}{
		"title":      "Camping tent",
		"category":   "outdoor",
		"price_base": 250,
	})
	require.Equal(t, http.StatusCreated, code)

	var listing entity.Listing
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	return listing.ID
}

func decodeListing(t *testing.T, env envelope) entity.Listing {
	t.Helper()
	var listing entity.Listing
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	return listing
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"memory"`)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/my-listings", "", map[string]interface{}{"title": "x"})

	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestCashRentalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, env := s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental-requests", renterID, map[string]int{"days": 3})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, entity.RentalStatusPending, decodeListing(t, env).RentalStatus)

	code, _ = s.do(t, http.MethodPost, "/v1/my-listings/"+id+"/rental/approve", renterID, nil)
	assert.Equal(t, http.StatusForbidden, code, "only the owner approves")

	code, env = s.do(t, http.MethodPost, "/v1/my-listings/"+id+"/rental/approve", ownerID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, entity.RentalStatusApproved, decodeListing(t, env).RentalStatus)

	code, env = s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental/payment-method", renterID, map[string]string{
		"payment_method":  entity.PaymentMethodCash,
		"pickup_location": "Main gate",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, entity.PaymentMethodCash, decodeListing(t, env).PaymentMethod)

	steps := []struct {
		path   string
		uid    string
		status entity.RentalStatus
	}{
		{"/v1/my-listings/" + id + "/rental/cash-payment", ownerID, entity.RentalStatusPaid},
		{"/v1/my-listings/" + id + "/rental/handover", ownerID, entity.RentalStatusRented},
		{"/v1/listings/" + id + "/rental/return", renterID, entity.RentalStatusReturning},
	}
	for _, step := range steps {
		code, env = s.do(t, http.MethodPost, step.path, step.uid, nil)
		require.Equal(t, http.StatusOK, code, step.path)
		assert.Equal(t, step.status, decodeListing(t, env).RentalStatus, step.path)
	}

	code, env = s.do(t, http.MethodPost, "/v1/my-listings/"+id+"/rental/verify-return", ownerID, nil)
	require.Equal(t, http.StatusOK, code)

	var verified struct {
		Listing    entity.Listing `json:"listing"`
		VerifiedAt int64          `json:"verified_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.True(t, verified.Listing.Available)
	assert.Equal(t, entity.RentalStatusIdle, verified.Listing.RentalStatus)
	assert.Positive(t, verified.VerifiedAt)

	code, _ = s.do(t, http.MethodGet, "/v1/transactions", renterID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRentalRequestValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, env := s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental-requests", renterID, map[string]int{"days": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental/payment-method", renterID, map[string]string{
		"payment_method": "Bitcoin",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSecondRentalRequestConflicts(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, _ := s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental-requests", renterID, map[string]int{"days": 2})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/v1/listings/"+id+"/rental-requests", "renter-2", map[string]int{"days": 2})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, usecase.MsgNotAvailable, env.Error.Message)
}

func TestFlagAndAdminQueue(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, env := s.do(t, http.MethodPost, "/v1/listings/"+id+"/flags", renterID, map[string]string{"reason": "spam"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decodeListing(t, env).ReportCount)

	code, _ = s.do(t, http.MethodGet, "/v1/admin/listings/reported", renterID, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/v1/admin/listings/reported", adminID, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/v1/admin/listings/"+id+"/review", adminID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeListing(t, env).Flagged)

	code, env = s.do(t, http.MethodPost, "/v1/admin/listings/"+id+"/clear-flags", adminID, nil)
	require.Equal(t, http.StatusOK, code)
	cleared := decodeListing(t, env)
	assert.False(t, cleared.Flagged)
	assert.Empty(t, cleared.FlaggedBy)
	assert.True(t, cleared.Available)
}

func TestRatingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, env := s.do(t, http.MethodPut, "/v1/listings/"+id+"/rating", renterID, map[string]float64{"rating": 4})
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 4.0, decodeListing(t, env).Rating, 1e-9)

	code, _ = s.do(t, http.MethodPut, "/v1/listings/"+id+"/rating", renterID, map[string]float64{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConversationDefaultsToOwner(t *testing.T) {
	s := newTestServer(t)
	id := s.createListing(t)

	code, env := s.do(t, http.MethodPost, "/v1/conversations", renterID, map[string]string{
		"listing_id": id,
		"message":    "Is it still available?",
	})
	require.Equal(t, http.StatusCreated, code)

	var first usecase.ConversationResult
	require.NoError(t, json.Unmarshal(env.Data, &first))
	require.NotNil(t, first.Conversation)
	assert.True(t, first.Conversation.HasParticipant(ownerID))

	code, env = s.do(t, http.MethodPost, "/v1/conversations", renterID, map[string]string{
		"listing_id": id,
		"message":    "Hello again",
	})
	require.Equal(t, http.StatusOK, code)

	var second usecase.ConversationResult
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)

	code, _ = s.do(t, http.MethodGet, "/v1/conversations/"+first.Conversation.ID+"/messages", "stranger", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestGetMeCreatesAccount(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/users/me", renterID, nil)
	require.Equal(t, http.StatusOK, code)

	var user entity.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, renterID, user.ID)

	_, err := s.users.GetByID(context.Background(), renterID)
	assert.NoError(t, err)
}
