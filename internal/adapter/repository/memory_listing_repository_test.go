package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
)

func TestMemoryListingTransactMissing(t *testing.T) {
	repo := NewMemoryListingRepository()

	got, err := repo.Transact(context.Background(), "nope", func(l *entity.Listing) error {
		t.Fatal("mutation must not run for a missing record")
		return nil
	})

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryListingTransactAbortPassesAppError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "l1", Available: true}))

	_, err := repo.Transact(ctx, "l1", func(l *entity.Listing) error {
		l.Available = false
		return errors.Aborted("nope")
	})

	assert.True(t, errors.IsAborted(err))
	stored, err := repo.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, stored.Available)
}

func TestMemoryListingTransactKeepsReportCount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "l1"}))

	got, err := repo.Transact(ctx, "l1", func(l *entity.Listing) error {
		l.FlaggedBy = append(l.FlaggedBy, "u1", "u2")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, got.ReportCount)
}

func TestMemoryListingConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "l1", Available: true}))

	var commits int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Transact(ctx, "l1", func(l *entity.Listing) error {
				if !l.Available {
					return errors.Aborted("taken")
				}
				l.Available = false
				return nil
			})
			if err == nil {
				atomic.AddInt32(&commits, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), commits)
}

func TestMemoryListingListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "a", OwnerID: "o1", Available: true, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "b", OwnerID: "o1", Flagged: true, FlaggedBy: []string{"x"}, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "c", OwnerID: "o2", FlaggedBy: []string{"x", "y"}, CreatedAt: base.Add(2 * time.Hour)}))

	all, total, err := repo.List(ctx, repository.ListingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "c", all[0].ID)

	available, _, err := repo.List(ctx, repository.ListingFilter{AvailableOnly: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "a", available[0].ID)

	flagged := true
	onlyFlagged, _, err := repo.List(ctx, repository.ListingFilter{Flagged: &flagged}, 10, 0)
	require.NoError(t, err)
	require.Len(t, onlyFlagged, 1)
	assert.Equal(t, "b", onlyFlagged[0].ID)

	reported, total, err := repo.List(ctx, repository.ListingFilter{Reported: true}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "c", reported[0].ID)

	page, total, err := repo.List(ctx, repository.ListingFilter{OwnerID: "o1"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)
}

func TestMemoryListingWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := NewMemoryListingRepository()
	require.NoError(t, repo.Create(ctx, &entity.Listing{ID: "l1"}))

	ch, err := repo.Watch(ctx, "l1")
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, entity.RentalStatusIdle, first.RentalStatus)

	_, err = repo.Transact(ctx, "l1", func(l *entity.Listing) error {
		l.RentalStatus = entity.RentalStatusPending
		return nil
	})
	require.NoError(t, err)

	select {
	case l := <-ch:
		assert.Equal(t, entity.RentalStatusPending, l.RentalStatus)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}
