package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:       "1",
		Date:     "2025-01-01",
		Type:     Income,
		Amount:   "100",
		Category: "Salary",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"bad type", Transaction{Date: "2025-01-01", Type: "transfer", Amount: "1", Category: "X"}, ErrInvalidType},
		{"empty category", Transaction{Date: "2025-01-01", Type: Expense, Amount: "1", Category: "  "}, ErrEmptyCategory},
		{"negative amount", Transaction{Date: "2025-01-01", Type: Expense, Amount: "-5", Category: "X"}, ErrInvalidAmount},
		{"zero amount", Transaction{Date: "2025-01-01", Type: Expense, Amount: "0", Category: "X"}, ErrInvalidAmount},
		{"non-numeric amount", Transaction{Date: "2025-01-01", Type: Expense, Amount: "abc", Category: "X"}, ErrInvalidAmount},
		{"empty date", Transaction{Date: "", Type: Expense, Amount: "1", Category: "X"}, ErrInvalidDate},
		{"garbage date", Transaction{Date: "not-a-date", Type: Expense, Amount: "1", Category: "X"}, ErrInvalidDate},
	}
	for _, tc := range bads {
		if err := tc.tx.Validate(); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTransactionWhen(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-02", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2025-01-02T15:04:05Z", time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"2025-01-02T15:04:05.000Z", time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"", time.Time{}},
		{"garbage", time.Time{}},
	}
	for _, tc := range cases {
		got := Transaction{Date: tc.in}.When()
		if !got.Equal(tc.want) {
			t.Fatalf("When(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAmountCentsPermissive(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 10000},
		{"40", 4000},
		{"12.34", 1234},
		{"abc", 0},
		{"", 0},
		{"-5", 0},
	}
	for _, tc := range cases {
		if got := (Transaction{Amount: tc.in}).AmountCents(); got != tc.want {
			t.Fatalf("AmountCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
