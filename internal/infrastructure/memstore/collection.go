// Package memstore is an in-process document store with optimistic
// read-modify-write transactions and per-key change subscriptions.
// It backs the memory repositories used in tests and local development.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultMaxAttempts bounds how often Transact re-runs a mutation after losing a race.
const DefaultMaxAttempts = 25

var (
	ErrExists     = errors.New("memstore: record already exists")
	ErrContention = errors.New("memstore: too much contention on record")
)

type record[T any] struct {
	value   T
	version uint64
}

// Collection holds records of one kind keyed by ID.
type Collection[T any] struct {
	mu          sync.RWMutex
	records     map[string]*record[T]
	watchers    map[string]map[chan T]struct{}
	clone       func(T) T
	maxAttempts int

	// beforeCommit is called between running a mutation and validating its version.
	// Tests use it to force interleavings.
	beforeCommit func(id string)
}

// NewCollection returns an empty collection. clone must return a deep copy;
// values handed to callers are always clones.
func NewCollection[T any](clone func(T) T) *Collection[T] {
	return &Collection[T]{
		records:     make(map[string]*record[T]),
		watchers:    make(map[string]map[chan T]struct{}),
		clone:       clone,
		maxAttempts: DefaultMaxAttempts,
	}
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(rec.value), true
}

// Insert stores v under id, failing with ErrExists if id is taken.
func (c *Collection[T]) Insert(id string, v T) error {
	_, created := c.CreateIfAbsent(id, v)
	if !created {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	return nil
}

// CreateIfAbsent stores v under id unless a record exists. It returns the stored
// value and whether this call created it.
func (c *Collection[T]) CreateIfAbsent(id string, v T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.records[id]; ok {
		return c.clone(rec.value), false
	}
	rec := &record[T]{value: c.clone(v), version: 1}
	c.records[id] = rec
	c.notify(id, rec.value)
	return c.clone(rec.value), true
}

// Put overwrites the record unconditionally.
func (c *Collection[T]) Put(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		rec = &record[T]{}
		c.records[id] = rec
	}
	rec.value = c.clone(v)
	rec.version++
	c.notify(id, rec.value)
}

// Delete removes the record and ends its subscriptions. It reports whether a record existed.
func (c *Collection[T]) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.records[id]
	delete(c.records, id)
	for ch := range c.watchers[id] {
		close(ch)
	}
	delete(c.watchers, id)
	return ok
}

// Transact applies fn to a private copy of the latest committed value and commits
// it if no other write landed in between, retrying otherwise. An error from fn
// aborts without writing. A missing record commits nothing and returns found=false.
func (c *Collection[T]) Transact(ctx context.Context, id string, fn func(T) error) (result T, found bool, err error) {
	var zero T
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}

		c.mu.RLock()
		rec, ok := c.records[id]
		var working T
		var version uint64
		if ok {
			working = c.clone(rec.value)
			version = rec.version
		}
		c.mu.RUnlock()

		if !ok {
			return zero, false, nil
		}

		if err := runMutation(fn, working); err != nil {
			return zero, true, err
		}

		if c.beforeCommit != nil {
			c.beforeCommit(id)
		}

		c.mu.Lock()
		current, ok := c.records[id]
		if !ok {
			c.mu.Unlock()
			return zero, false, nil
		}
		if current.version != version {
			c.mu.Unlock()
			continue
		}
		current.value = working
		current.version++
		c.notify(id, current.value)
		out := c.clone(current.value)
		c.mu.Unlock()
		return out, true, nil
	}
	return zero, true, fmt.Errorf("%w: %s", ErrContention, id)
}

func runMutation[T any](fn func(T) error, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("memstore: mutation panicked: %v", r)
		}
	}()
	return fn(v)
}

// Query returns clones of every record matching pred, ordered by ID.
func (c *Collection[T]) Query(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.records))
	for id, rec := range c.records {
		if pred == nil || pred(rec.value) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.clone(c.records[id].value))
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Watch subscribes to changes of id. The current value is delivered first when the
// record exists. Slow readers only see the latest value. The channel is closed when
// ctx is done or the record is deleted.
func (c *Collection[T]) Watch(ctx context.Context, id string) <-chan T {
	ch := make(chan T, 1)

	c.mu.Lock()
	if c.watchers[id] == nil {
		c.watchers[id] = make(map[chan T]struct{})
	}
	c.watchers[id][ch] = struct{}{}
	if rec, ok := c.records[id]; ok {
		ch <- c.clone(rec.value)
	}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		if subs, ok := c.watchers[id]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(c.watchers, id)
			}
		}
	}()

	return ch
}

// notify must be called with mu held for writing.
func (c *Collection[T]) notify(id string, v T) {
	for ch := range c.watchers[id] {
		select {
		case <-ch:
		default:
		}
		ch <- c.clone(v)
	}
}
