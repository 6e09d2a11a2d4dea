package amqp

import (
	"encoding/json"
	"time"
)

// ReminderDueMessage tells the notify worker that a calendar reminder has
// come due. It carries the full reminder payload so the worker does not
// need database access to deliver the notification.
type ReminderDueMessage struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderDueMessage creates a due message for the given reminder.
func NewReminderDueMessage(id int64, title string, dueAt time.Time) *ReminderDueMessage {
	return &ReminderDueMessage{
		ID:        id,
		Title:     title,
		DueAt:     dueAt,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderDueMessageFromJSON creates a message from JSON bytes
func ReminderDueMessageFromJSON(data []byte) (*ReminderDueMessage, error) {
	var msg ReminderDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
