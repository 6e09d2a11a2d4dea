package amqp

import (
	"testing"
	"time"
)

func TestReminderDueMessageRoundTrip(t *testing.T) {
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	msg := NewReminderDueMessage(42, "Pay Credit Card Bill", due)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ReminderDueMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 42 || got.Title != "Pay Credit Card Bill" || !got.DueAt.Equal(due) {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestReminderDueMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ReminderDueMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}
