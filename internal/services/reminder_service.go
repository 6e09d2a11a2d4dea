// Package services orchestrates calendar reminder operations across the
// SQLite store and the AMQP notification queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
)

var (
	// ErrCalendarDisabled means the capability is switched off for this
	// deployment; callers should hide the feature rather than fail.
	ErrCalendarDisabled = errors.New("calendar capability disabled")

	// ErrAccessNotGranted means RequestAccess has not succeeded yet.
	ErrAccessNotGranted = errors.New("calendar access not granted")
)

// ReminderStore is the persistence surface the service needs.
type ReminderStore interface {
	CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error)
	ListReminders(ctx context.Context) ([]core.Reminder, error)
	DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Reminder, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) error
	Ping(ctx context.Context) error
}

// ReminderService mirrors the platform calendar binding: access must be
// requested before reminders can be created, and every failure degrades to
// a reported condition instead of crashing the core.
type ReminderService struct {
	store   ReminderStore
	enabled bool
	granted atomic.Bool
}

func NewReminderService(store ReminderStore, enabled bool) *ReminderService {
	return &ReminderService{store: store, enabled: enabled}
}

// RequestAccess asks for permission to use the reminder store. Access is
// denied when the capability is disabled or the store is unreachable.
func (s *ReminderService) RequestAccess(ctx context.Context) (bool, error) {
	if !s.enabled || s.store == nil {
		return false, ErrCalendarDisabled
	}
	if err := s.store.Ping(ctx); err != nil {
		return false, fmt.Errorf("calendar store unreachable: %w", err)
	}
	s.granted.Store(true)

	slog.InfoContext(ctx, "Calendar access granted", "component", "calendar")
	return true, nil
}

// Granted reports whether access has been granted.
func (s *ReminderService) Granted() bool {
	return s.granted.Load()
}

// CreateReminder validates and persists a reminder. The title and ISO due
// date follow the platform binding contract.
func (s *ReminderService) CreateReminder(ctx context.Context, title, dueISO string) (core.Reminder, error) {
	if !s.enabled {
		return core.Reminder{}, ErrCalendarDisabled
	}
	if !s.granted.Load() {
		return core.Reminder{}, ErrAccessNotGranted
	}

	rem, err := core.NewReminder(title, dueISO)
	if err != nil {
		return core.Reminder{}, err
	}

	saved, err := s.store.CreateReminder(ctx, rem)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return saved, nil
}

// ListReminders returns all reminders ordered by due date.
func (s *ReminderService) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	if !s.enabled {
		return nil, ErrCalendarDisabled
	}
	if !s.granted.Load() {
		return nil, ErrAccessNotGranted
	}
	reminders, err := s.store.ListReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}
