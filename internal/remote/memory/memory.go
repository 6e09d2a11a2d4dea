// Package memory provides a seeded in-process gateway with the same
// contract as the HTTP client. Used for tests and offline runs.
package memory

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

type Store struct {
	mu    sync.Mutex
	seed  []core.Transaction
	idSeq uint64
	// FetchErr, when set, makes FetchTransactions fail. Lets tests and
	// offline demos exercise the failure path.
	FetchErr error
}

func New(seed []core.Transaction) *Store {
	return &Store{seed: append([]core.Transaction(nil), seed...)}
}

// NewFromFile seeds the store from a JSON array on disk. A missing or
// unreadable file yields an empty store rather than an error.
func NewFromFile(path string) *Store {
	raw, err := os.ReadFile(path)
	if err != nil {
		return New(nil)
	}
	var seed []core.Transaction
	if err := json.Unmarshal(raw, &seed); err != nil {
		return New(nil)
	}
	return New(seed)
}

// FetchTransactions returns a copy of the seed collection.
func (s *Store) FetchTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	out := make([]core.Transaction, len(s.seed))
	copy(out, s.seed)
	return out, nil
}

// CreateTransaction assigns a fresh unique id and returns the copy.
func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idSeq++
	tx.ID = "mem-" + strconv.FormatUint(s.idSeq, 10)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) (string, error) {
	return id, nil
}

var _ remote.Gateway = (*Store)(nil)
