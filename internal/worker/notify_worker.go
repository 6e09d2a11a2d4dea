package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Notifier delivers a due reminder to the user. The default implementation
// writes a structured log line; a desktop or push integration can be swapped
// in without touching the worker.
type Notifier interface {
	Notify(ctx context.Context, rem core.Reminder) error
}

// ReminderSource is the subset of the reminder repository the worker needs
// for its startup recovery scan.
type ReminderSource interface {
	DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Reminder, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) error
}

// NotifyWorker handles delivery of due-reminder notifications consumed
// from AMQP.
type NotifyWorker struct {
	storage   ReminderSource
	notifier  Notifier
	batchSize int
}

func NewNotifyWorker(storage ReminderSource, notifier Notifier, batchSize int) *NotifyWorker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &NotifyWorker{
		storage:   storage,
		notifier:  notifier,
		batchSize: batchSize,
	}
}

// HandleDueMessage processes a single reminder-due message from AMQP.
// The publisher already marked the reminder notified, so delivery is all
// that remains here.
func (w *NotifyWorker) HandleDueMessage(ctx context.Context, msg *amqp.ReminderDueMessage) error {
	slog.InfoContext(ctx, "Processing due reminder message",
		"id", msg.ID,
		"due_at", msg.DueAt.Format(time.RFC3339))

	rem := core.Reminder{
		ID:    msg.ID,
		Title: msg.Title,
		DueAt: msg.DueAt,
	}

	if err := w.notifier.Notify(ctx, rem); err != nil {
		return fmt.Errorf("deliver reminder notification: %w", err)
	}

	return nil
}

// StartupDueCheck delivers any reminders that came due while the worker was
// down. This is a backup mechanism in case AMQP messages are lost: the
// server side only marks a reminder notified after the broker accepts the
// publish, so anything still unnotified here was genuinely missed.
func (w *NotifyWorker) StartupDueCheck(ctx context.Context) error {
	// Use a larger batch for the startup scan
	due, err := w.storage.DueReminders(ctx, time.Now(), w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get due reminders for startup check: %w", err)
	}

	if len(due) == 0 {
		slog.InfoContext(ctx, "No missed reminders found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found missed reminders on startup, delivering...",
		"count", len(due))

	successCount := 0
	errorCount := 0

	for _, rem := range due {
		if err := w.notifier.Notify(ctx, rem); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver reminder during startup",
				"id", rem.ID, "error", err)
			errorCount++
			continue
		}

		if err := w.storage.MarkNotified(ctx, rem.ID, time.Now()); err != nil {
			slog.ErrorContext(ctx, "Failed to mark reminder notified",
				"id", rem.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup reminder check completed",
		"total", len(due),
		"delivered", successCount,
		"errors", errorCount)

	return nil
}

// LogNotifier delivers reminders as structured log lines. It stands in for
// a real notification surface in headless deployments.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, rem core.Reminder) error {
	slog.InfoContext(ctx, "REMINDER DUE",
		"id", rem.ID,
		"title", rem.Title,
		"due_at", rem.DueAt.Format(time.RFC3339))
	return nil
}
