package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single money movement. Field tags follow the wire
	// format of the remote transaction feed.
	Transaction struct {
		ID       string          `json:"id"`
		Date     string          `json:"date"`
		Type     TransactionType `json:"transaction_type"`
		Amount   string          `json:"transaction_amount"`
		Category string          `json:"transaction_category"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category")
)

// Valid reports whether the type is one of the closed enumeration values.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Validate applies the strict entry-time policy: a transaction must carry a
// valid type, a non-empty category, a positive parseable amount and a
// parseable date before it may enter the store.
func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	if _, err := ParseAmountCents(tx.Amount); err != nil {
		return err
	}
	if tx.When().IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// When parses the transaction date, tolerating both a bare calendar date
// (2006-01-02) and a full ISO datetime. Returns the zero time when the
// date cannot be interpreted.
func (tx Transaction) When() time.Time {
	d := strings.TrimSpace(tx.Date)
	if d == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, d); err == nil {
		return t
	}
	if len(d) >= 10 {
		if t, err := time.Parse("2006-01-02", d[:10]); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AmountCents is the permissive display-path parse: anything that does not
// read as a non-negative decimal contributes zero. Aggregation only; the
// strict policy for accepting a transaction is ParseAmountCents.
func (tx Transaction) AmountCents() int64 {
	cents, err := ParseAmountCents(tx.Amount)
	if err != nil {
		return 0
	}
	return cents
}
