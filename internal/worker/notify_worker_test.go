package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeSource struct {
	due      []core.Reminder
	dueErr   error
	notified []int64
}

func (f *fakeSource) DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Reminder, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	if limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeSource) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	f.notified = append(f.notified, id)
	return nil
}

type fakeNotifier struct {
	delivered []core.Reminder
	err       error
}

func (f *fakeNotifier) Notify(ctx context.Context, rem core.Reminder) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, rem)
	return nil
}

func TestHandleDueMessageDelivers(t *testing.T) {
	n := &fakeNotifier{}
	w := NewNotifyWorker(&fakeSource{}, n, 10)

	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := amqp.NewReminderDueMessage(7, "Pay Credit Card Bill", due)

	if err := w.HandleDueMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleDueMessage failed: %v", err)
	}
	if len(n.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(n.delivered))
	}
	if n.delivered[0].ID != 7 || n.delivered[0].Title != "Pay Credit Card Bill" {
		t.Errorf("unexpected delivered reminder: %+v", n.delivered[0])
	}
}

func TestHandleDueMessageNotifierError(t *testing.T) {
	n := &fakeNotifier{err: errors.New("dbus unavailable")}
	w := NewNotifyWorker(&fakeSource{}, n, 10)

	msg := amqp.NewReminderDueMessage(1, "Rent", time.Now())
	if err := w.HandleDueMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error from failing notifier")
	}
}

func TestStartupDueCheckDeliversAndMarks(t *testing.T) {
	src := &fakeSource{due: []core.Reminder{
		{ID: 1, Title: "Rent", DueAt: time.Now().Add(-time.Hour)},
		{ID: 2, Title: "Insurance", DueAt: time.Now().Add(-time.Minute)},
	}}
	n := &fakeNotifier{}
	w := NewNotifyWorker(src, n, 10)

	if err := w.StartupDueCheck(context.Background()); err != nil {
		t.Fatalf("StartupDueCheck failed: %v", err)
	}
	if len(n.delivered) != 2 {
		t.Errorf("expected 2 deliveries, got %d", len(n.delivered))
	}
	if len(src.notified) != 2 {
		t.Errorf("expected 2 reminders marked notified, got %d", len(src.notified))
	}
}

func TestStartupDueCheckStorageError(t *testing.T) {
	src := &fakeSource{dueErr: errors.New("database locked")}
	w := NewNotifyWorker(src, &fakeNotifier{}, 10)

	if err := w.StartupDueCheck(context.Background()); err == nil {
		t.Fatal("expected error when due scan fails")
	}
}

func TestStartupDueCheckSkipsMarkOnDeliveryFailure(t *testing.T) {
	src := &fakeSource{due: []core.Reminder{{ID: 3, Title: "Taxes", DueAt: time.Now()}}}
	n := &fakeNotifier{err: errors.New("delivery down")}
	w := NewNotifyWorker(src, n, 10)

	if err := w.StartupDueCheck(context.Background()); err != nil {
		t.Fatalf("StartupDueCheck failed: %v", err)
	}
	if len(src.notified) != 0 {
		t.Errorf("reminder must stay unnotified after failed delivery, got %v", src.notified)
	}
}
