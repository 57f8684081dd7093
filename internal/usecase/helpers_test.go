package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	repoimpl "rentalhub/internal/adapter/repository"
	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/domain/service"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type sentNotification struct {
	UserID    string
	ListingID string
	Kind      string
	Title     string
	Body      string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) SendAndSaveNotification(ctx context.Context, userID, title, body string) (bool, string) {
	return n.SendListingNotification(ctx, userID, "", "", title, body)
}

func (n *recordingNotifier) SendListingNotification(ctx context.Context, userID, listingID, kind, title, body string) (bool, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID, listingID, kind, title, body})
	return true, "OK"
}

func (n *recordingNotifier) to(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.RentalEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event entity.RentalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeGateway struct {
	initiated []service.PaymentRequest
	lookup    service.PaymentLookup
	err       error
}

func (g *fakeGateway) InitiatePayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentInitiation, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.initiated = append(g.initiated, req)
	return &service.PaymentInitiation{Pidx: "pidx-1", PaymentURL: "https://pay.example/pidx-1"}, nil
}

func (g *fakeGateway) LookupPayment(ctx context.Context, pidx string) (*service.PaymentLookup, error) {
	if g.err != nil {
		return nil, g.err
	}
	res := g.lookup
	res.Pidx = pidx
	return &res, nil
}

type stubLimiter struct {
	deny map[string]bool
}

func (l stubLimiter) Allow(ctx context.Context, userID, action string) (bool, time.Duration, error) {
	if l.deny[action] {
		return false, 30 * time.Second, nil
	}
	return true, 0, nil
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes map[string][]string
	online map[string]bool
}

func newRecordingPusher(online ...string) *recordingPusher {
	p := &recordingPusher{pushes: map[string][]string{}, online: map[string]bool{}}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *recordingPusher) Push(userID, eventType string, data interface{}) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes[userID] = append(p.pushes[userID], eventType)
	if p.online[userID] {
		return 1
	}
	return 0
}

type fakeIdentity struct {
	deleted []string
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

type testStores struct {
	listings      repository.ListingRepository
	users         repository.UserRepository
	conversations repository.ConversationRepository
	transactions  repository.TransactionRepository
	notifications repository.NotificationRepository
}

func newTestStores() testStores {
	return testStores{
		listings:      repoimpl.NewMemoryListingRepository(),
		users:         repoimpl.NewMemoryUserRepository(),
		conversations: repoimpl.NewMemoryConversationRepository(),
		transactions:  repoimpl.NewMemoryTransactionRepository(),
		notifications: repoimpl.NewMemoryNotificationRepository(),
	}
}

func seedListing(t *testing.T, repo repository.ListingRepository, id, ownerID string, mutate ...func(*entity.Listing)) *entity.Listing {
	t.Helper()
	listing := &entity.Listing{
		ID:        id,
		OwnerID:   ownerID,
		Title:     "Camping tent",
		Category:  "outdoor",
		PriceBase: 250,
		Quantity:  1,
		Available: true,
	}
	for _, m := range mutate {
		m(listing)
	}
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func seedUser(t *testing.T, repo repository.UserRepository, id string, mutate ...func(*entity.User)) *entity.User {
	t.Helper()
	user := &entity.User{ID: id, Role: entity.RoleUser, KYCStatus: entity.KYCStatusNone}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func mustGetListing(t *testing.T, repo repository.ListingRepository, id string) *entity.Listing {
	t.Helper()
	listing, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return listing
}
