package store

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"fintrack/internal/core"
)

// fakeGateway scripts fetch results by call order and assigns sequential
// ids on create.
type fakeGateway struct {
	mu         sync.Mutex
	fetches    [][]core.Transaction
	fetchCalls int
	fetchErr   error
	nextID     int
	fixedID    string // when set, every create returns this id

	// fetchStarted, when set, hands the test a release channel for each
	// in-flight fetch so completion order can be controlled.
	fetchStarted chan chan struct{}
}

func (g *fakeGateway) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	g.mu.Lock()
	idx := g.fetchCalls
	g.fetchCalls++
	err := g.fetchErr
	var out []core.Transaction
	if len(g.fetches) > 0 {
		if idx >= len(g.fetches) {
			idx = len(g.fetches) - 1
		}
		out = g.fetches[idx]
	}
	g.mu.Unlock()

	if g.fetchStarted != nil {
		release := make(chan struct{})
		g.fetchStarted <- release
		<-release
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fixedID != "" {
		tx.ID = g.fixedID
		return tx, nil
	}
	g.nextID++
	tx.ID = "g-" + strconv.Itoa(g.nextID)
	return tx, nil
}

func (g *fakeGateway) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	return tx, nil
}

func (g *fakeGateway) DeleteTransaction(_ context.Context, id string) (string, error) {
	return id, nil
}

func seed() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Date: "2025-01-01", Type: core.Income, Amount: "100", Category: "Salary"},
		{ID: "2", Date: "2025-01-02", Type: core.Expense, Amount: "40", Category: "Food"},
	}
}

func TestFetchAllReplacesCollection(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, seed()) {
		t.Fatalf("snapshot = %v", got)
	}
	if s.Loading() {
		t.Fatal("loading flag still set after fetch")
	}
}

func TestFetchAllIdempotent(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	first := s.Snapshot()
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, first) {
		t.Fatalf("unchanged remote changed content: %v vs %v", got, first)
	}
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	gw.mu.Lock()
	gw.fetchErr = errors.New("connection reset")
	gw.mu.Unlock()

	if err := s.FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if s.Loading() {
		t.Fatal("loading not cleared after failure")
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, seed()) {
		t.Fatalf("prior content lost: %v", got)
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	created, err := s.Add(context.Background(), core.Transaction{
		Date: "2025-02-01", Type: core.Expense, Amount: "7", Category: "Fun",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID == "" {
		t.Fatal("gateway id not assigned")
	}
	got := s.Snapshot()
	if got[0].ID != created.ID {
		t.Fatalf("new transaction not prepended: %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	gw := &fakeGateway{fixedID: "dup"}
	s := New(gw)

	if _, err := s.Add(context.Background(), seed()[0]); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := s.Add(context.Background(), seed()[1])
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if n := len(s.Snapshot()); n != 1 {
		t.Fatalf("collection grew on rejected add: %d", n)
	}
}

func TestUpdateReplacesWholeObject(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	repl := core.Transaction{ID: "2", Date: "2025-03-03", Type: core.Income, Amount: "99", Category: "Refund"}
	if _, err := s.Update(context.Background(), repl); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := s.Snapshot()
	if !reflect.DeepEqual(got[1], repl) {
		t.Fatalf("entry not replaced: %v", got[1])
	}
	// Insertion order is untouched by edits.
	if got[0].ID != "1" {
		t.Fatalf("order changed: %v", got)
	}
}

func TestUpdateAbsentIDIsNotFound(t *testing.T) {
	s := New(&fakeGateway{})
	_, err := s.Update(context.Background(), core.Transaction{ID: "999"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveAbsentIDLeavesStateUnchanged(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	err := s.Remove(context.Background(), "999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, seed()) {
		t.Fatalf("state changed on absent remove: %v", got)
	}
}

func TestRemoveDeletesByID(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := s.Remove(context.Background(), "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := s.Snapshot()
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("snapshot = %v", got)
	}
}

func TestNoDuplicateIDsUnderMixedOperations(t *testing.T) {
	gw := &fakeGateway{fetches: [][]core.Transaction{seed()}}
	s := New(gw)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(context.Background(), core.Transaction{
				Date: "2025-01-03", Type: core.Expense, Amount: "1", Category: "X",
			})
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, tx := range s.Snapshot() {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(seen) != 22 {
		t.Fatalf("expected 22 transactions, got %d", len(seen))
	}
}

func TestStaleFetchResultIsDiscarded(t *testing.T) {
	gw := &fakeGateway{
		fetches:      [][]core.Transaction{seed()[:1], seed()},
		fetchStarted: make(chan chan struct{}),
	}
	s := New(gw)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.FetchAll(context.Background()) }()
	release1 := <-gw.fetchStarted // stale fetch suspended inside the gateway

	if !s.Loading() {
		t.Fatal("loading flag not visible while fetch outstanding")
	}

	secondDone := make(chan error, 1)
	go func() { secondDone <- s.FetchAll(context.Background()) }()
	release2 := <-gw.fetchStarted

	// The newer fetch completes first; the stale result arrives after it.
	close(release2)
	if err := <-secondDone; err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	close(release1)
	if err := <-firstDone; err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	if s.Loading() {
		t.Fatal("loading flag stuck")
	}
	// Last fetch wins: the stale single-element result must not overwrite
	// the newer two-element one.
	if got := s.Snapshot(); !reflect.DeepEqual(got, seed()) {
		t.Fatalf("snapshot = %v, want latest fetch result", got)
	}
}
