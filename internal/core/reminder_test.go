package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewReminder(t *testing.T) {
	r, err := NewReminder("  Pay Credit Card Bill ", "2025-06-01T09:00:00Z")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if r.Title != "Pay Credit Card Bill" {
		t.Fatalf("expected trimmed title, got %q", r.Title)
	}
	want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if !r.DueAt.Equal(want) {
		t.Fatalf("DueAt = %v, want %v", r.DueAt, want)
	}

	cases := []struct {
		name  string
		title string
		due   string
		want  error
	}{
		{"empty title", "   ", "2025-06-01T09:00:00Z", ErrEmptyTitle},
		{"bad date", "Bill", "June 1st", ErrInvalidDueDate},
		{"date only", "Bill", "2025-06-01", ErrInvalidDueDate},
	}
	for _, tc := range cases {
		if _, err := NewReminder(tc.title, tc.due); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := NewReminder(strings.Repeat("x", 201), "2025-06-01T09:00:00Z"); err == nil {
		t.Fatal("expected error for overlong title")
	}
}

func TestReminderDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		due  time.Time
		want bool
	}{
		{"past", now.Add(-time.Hour), true},
		{"exact", now, true},
		{"future", now.Add(time.Hour), false},
	}
	for _, tc := range cases {
		if got := (Reminder{DueAt: tc.due}).Due(now); got != tc.want {
			t.Fatalf("%s: Due = %v, want %v", tc.name, got, tc.want)
		}
	}
}
