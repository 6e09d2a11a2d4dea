package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DuePublisher pushes due reminders onto the notification queue.
type DuePublisher interface {
	PublishReminderDue(ctx context.Context, id int64, title string, dueAt time.Time) error
}

// ReminderProcessorConfig holds configuration for the reminder processor
type ReminderProcessorConfig struct {
	// PollInterval is how often to scan for due reminders (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of reminders published per scan (default: 10)
	BatchSize int
}

// DefaultReminderProcessorConfig returns sensible defaults
func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// ReminderProcessor periodically scans the reminder store and publishes
// reminders that have come due. A reminder is marked notified only after
// its message is accepted by the broker, so a publish failure retries on
// the next scan.
type ReminderProcessor struct {
	store     ReminderStore
	publisher DuePublisher
	config    ReminderProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(store ReminderStore, publisher DuePublisher, config ReminderProcessorConfig) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// Start begins the scan loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"component", "calendar")

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Scan immediately on startup
	p.ProcessDue(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessDue(ctx)
		}
	}
}

// ProcessDue publishes one batch of due reminders. Returns the number of
// reminders successfully published and marked.
func (p *ReminderProcessor) ProcessDue(ctx context.Context) int {
	now := time.Now()
	due, err := p.store.DueReminders(ctx, now, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to scan due reminders",
			"error", err,
			"component", "calendar")
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	published := 0
	for _, rem := range due {
		select {
		case <-p.stopCh:
			return published
		case <-ctx.Done():
			return published
		default:
		}

		if p.publisher != nil {
			if err := p.publisher.PublishReminderDue(ctx, rem.ID, rem.Title, rem.DueAt); err != nil {
				slog.ErrorContext(ctx, "Failed to publish due reminder",
					"reminder_id", rem.ID,
					"error", err,
					"component", "calendar")
				continue // retry on the next scan
			}
		} else {
			slog.WarnContext(ctx, "No publisher configured, marking reminder without notification",
				"reminder_id", rem.ID,
				"component", "calendar")
		}

		if err := p.store.MarkNotified(ctx, rem.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to mark reminder notified",
				"reminder_id", rem.ID,
				"error", err,
				"component", "calendar")
			continue
		}
		published++

		slog.InfoContext(ctx, "Reminder published",
			"reminder_id", rem.ID,
			"title", rem.Title,
			"due_at", rem.DueAt,
			"component", "calendar",
			"operation", "notify")
	}
	return published
}
