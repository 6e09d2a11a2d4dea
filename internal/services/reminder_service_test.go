package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
)

// fakeStore is an in-memory ReminderStore.
type fakeStore struct {
	mu        sync.Mutex
	reminders []core.Reminder
	nextID    int64
	pingErr   error
	markErr   error
}

func (f *fakeStore) CreateReminder(_ context.Context, rem core.Reminder) (core.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rem.ID = f.nextID
	rem.CreatedAt = time.Now()
	f.reminders = append(f.reminders, rem)
	return rem, nil
}

func (f *fakeStore) ListReminders(_ context.Context) ([]core.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Reminder(nil), f.reminders...), nil
}

func (f *fakeStore) DueReminders(_ context.Context, now time.Time, limit int) ([]core.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Reminder
	for _, r := range f.reminders {
		if r.NotifiedAt == nil && r.Due(now) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkNotified(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.reminders {
		if f.reminders[i].ID == id {
			t := at
			f.reminders[i].NotifiedAt = &t
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakePublisher struct {
	mu        sync.Mutex
	published []int64
	err       error
}

func (p *fakePublisher) PublishReminderDue(_ context.Context, id int64, _ string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func TestRequestAccessGate(t *testing.T) {
	ctx := context.Background()

	disabled := NewReminderService(&fakeStore{}, false)
	if _, err := disabled.RequestAccess(ctx); !errors.Is(err, ErrCalendarDisabled) {
		t.Fatalf("expected ErrCalendarDisabled, got %v", err)
	}

	svc := NewReminderService(&fakeStore{}, true)
	// Creation before access is granted must be rejected.
	if _, err := svc.CreateReminder(ctx, "Bill", "2025-06-01T09:00:00Z"); !errors.Is(err, ErrAccessNotGranted) {
		t.Fatalf("expected ErrAccessNotGranted, got %v", err)
	}

	granted, err := svc.RequestAccess(ctx)
	if err != nil || !granted {
		t.Fatalf("request access = %v, %v", granted, err)
	}
	if !svc.Granted() {
		t.Fatal("granted flag not set")
	}
}

func TestRequestAccessDeniedOnUnreachableStore(t *testing.T) {
	svc := NewReminderService(&fakeStore{pingErr: errors.New("locked")}, true)
	granted, err := svc.RequestAccess(context.Background())
	if granted || err == nil {
		t.Fatalf("expected denial, got %v, %v", granted, err)
	}
}

func TestCreateReminderValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewReminderService(&fakeStore{}, true)
	if _, err := svc.RequestAccess(ctx); err != nil {
		t.Fatalf("request access: %v", err)
	}

	if _, err := svc.CreateReminder(ctx, "  ", "2025-06-01T09:00:00Z"); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := svc.CreateReminder(ctx, "Bill", "June 1st"); !errors.Is(err, core.ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}

	rem, err := svc.CreateReminder(ctx, "Bill", "2025-06-01T09:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rem.ID == 0 {
		t.Fatal("id not assigned")
	}

	list, err := svc.ListReminders(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestProcessDuePublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	pub := &fakePublisher{}

	past, _ := core.NewReminder("past", time.Now().Add(-time.Hour).Format(time.RFC3339))
	future, _ := core.NewReminder("future", time.Now().Add(time.Hour).Format(time.RFC3339))
	store.CreateReminder(ctx, past)
	store.CreateReminder(ctx, future)

	p := NewReminderProcessor(store, pub, DefaultReminderProcessorConfig())

	if n := p.ProcessDue(ctx); n != 1 {
		t.Fatalf("published %d, want 1", n)
	}
	if len(pub.published) != 1 || pub.published[0] != 1 {
		t.Fatalf("published ids = %v", pub.published)
	}

	// Second scan finds nothing: the reminder was marked.
	if n := p.ProcessDue(ctx); n != 0 {
		t.Fatalf("second scan published %d", n)
	}
}

func TestProcessDueRetriesOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}

	past, _ := core.NewReminder("past", time.Now().Add(-time.Hour).Format(time.RFC3339))
	store.CreateReminder(ctx, past)

	p := NewReminderProcessor(store, pub, DefaultReminderProcessorConfig())

	if n := p.ProcessDue(ctx); n != 0 {
		t.Fatalf("published %d despite broker failure", n)
	}

	// Broker recovers; the same reminder is retried.
	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	if n := p.ProcessDue(ctx); n != 1 {
		t.Fatalf("retry published %d, want 1", n)
	}
}

func TestProcessorStartStop(t *testing.T) {
	ctx := context.Background()
	p := NewReminderProcessor(&fakeStore{}, nil, ReminderProcessorConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    5,
	})

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error on double start")
	}
	if !p.IsRunning() {
		t.Fatal("not running after start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("still running after stop")
	}
}
