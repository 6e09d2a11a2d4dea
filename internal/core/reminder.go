package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle     = errors.New("empty reminder title")
	ErrInvalidDueDate = errors.New("invalid reminder due date")
)

// Reminder is a calendar reminder tied to the user's transactions, e.g.
// "Pay Credit Card Bill".
type Reminder struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	DueAt      time.Time  `json:"due_at"`
	CreatedAt  time.Time  `json:"created_at"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
}

// NewReminder validates title and ISO due date and builds a reminder ready
// for persistence.
func NewReminder(title, dueISO string) (Reminder, error) {
	if strings.TrimSpace(title) == "" {
		return Reminder{}, ErrEmptyTitle
	}
	if len(title) > 200 {
		return Reminder{}, errors.New("reminder title too long (max 200 characters)")
	}
	due, err := time.Parse(time.RFC3339, strings.TrimSpace(dueISO))
	if err != nil {
		return Reminder{}, ErrInvalidDueDate
	}
	return Reminder{Title: strings.TrimSpace(title), DueAt: due}, nil
}

// Due reports whether the reminder should fire at the given instant.
func (r Reminder) Due(now time.Time) bool {
	return !r.DueAt.After(now)
}
