// Package store owns the canonical in-memory transaction collection.
//
// The store is the single source of truth consumed by the view pipeline.
// Every operation holds the store mutex across its gateway call, so
// back-to-back mutations apply in issue order, each observing the post-state
// of the previous one. Nothing outside this package can mutate the
// collection; reads go through Snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

var (
	// ErrNotFound reports an update or remove against an id absent from
	// the collection. The simulated backend would silently no-op here;
	// the store reports it distinctly instead.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateID reports a gateway-assigned id that already exists in
	// the collection. Ids are never reused, so this indicates a broken
	// gateway rather than a user error.
	ErrDuplicateID = errors.New("duplicate transaction id")
)

type Store struct {
	gw remote.Gateway

	mu       chanMutex
	txs      []core.Transaction
	loading  bool
	version  uint64
	fetchSeq uint64
}

// chanMutex is a context-aware mutex. Operations suspend at the gateway
// boundary, so plain lock/unlock around the whole operation must still honor
// caller cancellation while queued.
type chanMutex chan struct{}

func (m chanMutex) lock(ctx context.Context) error {
	select {
	case m <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m chanMutex) lockWait() { m <- struct{}{} }

func (m chanMutex) unlock() { <-m }

func New(gw remote.Gateway) *Store {
	return &Store{
		gw: gw,
		mu: make(chanMutex, 1),
	}
}

// FetchAll replaces the collection wholesale with the gateway's result. On
// failure the collection is left untouched and the error is returned; the
// loading flag is cleared either way. A fetch whose result arrives after a
// newer fetch has been issued is discarded (last-fetch-wins).
func (s *Store) FetchAll(ctx context.Context) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.mu.unlock()

	txs, err := s.gw.FetchTransactions(ctx)

	// Re-acquire unconditionally: the flag and sequence bookkeeping must
	// happen even when the caller's context is already cancelled.
	s.mu.lockWait()
	defer s.mu.unlock()

	stale := seq != s.fetchSeq
	if !stale {
		s.loading = false
	}

	if err != nil {
		slog.ErrorContext(ctx, "Fetch transactions failed",
			"error", err,
			"component", "store",
			"operation", "fetch")
		return fmt.Errorf("fetch transactions: %w", err)
	}
	if stale {
		slog.WarnContext(ctx, "Discarding stale fetch result",
			"seq", seq,
			"latest", s.fetchSeq,
			"component", "store",
			"operation", "fetch")
		return nil
	}

	s.txs = append(s.txs[:0:0], txs...)
	s.version++

	slog.InfoContext(ctx, "Transactions replaced from remote",
		"count", len(s.txs),
		"component", "store",
		"operation", "fetch")
	return nil
}

// Add forwards tx to the gateway's create stub and prepends the returned
// copy, keeping storage order newest-first. Callers validate input before
// calling; the store only defends id uniqueness.
func (s *Store) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.mu.lock(ctx); err != nil {
		return core.Transaction{}, err
	}
	defer s.mu.unlock()

	created, err := s.gw.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if s.indexOf(created.ID) >= 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrDuplicateID, created.ID)
	}

	s.txs = append([]core.Transaction{created}, s.txs...)
	s.version++

	slog.InfoContext(ctx, "Transaction added",
		"id", created.ID,
		"transaction_type", string(created.Type),
		"category", created.Category,
		"component", "store",
		"operation", "create")
	return created, nil
}

// Update replaces the entry whose id equals tx.ID with tx after the gateway
// acknowledges. The whole object is swapped; the store never mutates a
// transaction in place.
func (s *Store) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.mu.lock(ctx); err != nil {
		return core.Transaction{}, err
	}
	defer s.mu.unlock()

	i := s.indexOf(tx.ID)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("update %s: %w", tx.ID, ErrNotFound)
	}

	updated, err := s.gw.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.txs[i] = updated
	s.version++

	slog.InfoContext(ctx, "Transaction updated",
		"id", updated.ID,
		"component", "store",
		"operation", "update")
	return updated, nil
}

// Remove deletes the entry with the given id after the gateway acknowledges.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	if _, err := s.gw.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	s.version++

	slog.InfoContext(ctx, "Transaction removed",
		"id", id,
		"component", "store",
		"operation", "delete")
	return nil
}

// Snapshot returns a copy of the collection in storage order.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.lockWait()
	defer s.mu.unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Loading reports whether a fetch is outstanding.
func (s *Store) Loading() bool {
	s.mu.lockWait()
	defer s.mu.unlock()
	return s.loading
}

// Version is a monotonic counter bumped on every applied mutation. Cache
// keys derived from it go stale exactly when the collection changes.
func (s *Store) Version() uint64 {
	s.mu.lockWait()
	defer s.mu.unlock()
	return s.version
}

// indexOf must be called with the mutex held.
func (s *Store) indexOf(id string) int {
	for i, tx := range s.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
