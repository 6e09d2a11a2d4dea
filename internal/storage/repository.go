// Package storage persists calendar reminders in a device-local SQLite
// database. Transactions themselves are never persisted here; the remote
// feed is their only source.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateReminder inserts the reminder and returns it with its assigned id.
func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (title, due_at, created_at) VALUES (?, ?, ?)`,
		rem.Title,
		rem.DueAt.UTC().Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder id: %w", err)
	}
	rem.ID = id
	rem.CreatedAt = now

	slog.InfoContext(ctx, "Reminder saved",
		"reminder_id", id,
		"title", rem.Title,
		"due_at", rem.DueAt,
		"component", "storage",
		"operation", "create")
	return rem, nil
}

// ListReminders returns all reminders ordered by due date ascending.
func (r *SQLiteRepository) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, due_at, created_at, notified_at FROM reminders ORDER BY due_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// DueReminders returns up to limit unnotified reminders due at or before now.
func (r *SQLiteRepository) DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, due_at, created_at, notified_at FROM reminders
		 WHERE notified_at IS NULL AND due_at <= ?
		 ORDER BY due_at ASC, id ASC LIMIT ?`,
		now.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// MarkNotified stamps the reminder so it is not published again.
func (r *SQLiteRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET notified_at = ? WHERE id = ? AND notified_at IS NULL`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notified rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark notified: reminder %d not found or already notified", id)
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]core.Reminder, error) {
	var out []core.Reminder
	for rows.Next() {
		var (
			rem              core.Reminder
			dueAt, createdAt string
			notifiedAt       sql.NullString
		)
		if err := rows.Scan(&rem.ID, &rem.Title, &dueAt, &createdAt, &notifiedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		var err error
		if rem.DueAt, err = time.Parse(time.RFC3339, dueAt); err != nil {
			return nil, fmt.Errorf("parse due_at %q: %w", dueAt, err)
		}
		if rem.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		if notifiedAt.Valid {
			t, err := time.Parse(time.RFC3339, notifiedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse notified_at %q: %w", notifiedAt.String, err)
			}
			rem.NotifiedAt = &t
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}
