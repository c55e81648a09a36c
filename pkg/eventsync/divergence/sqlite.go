package divergence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// ErrLedgerClosed indicates the ledger has been closed.
var ErrLedgerClosed = errors.New("divergence ledger closed")

// SQLiteLedger persists divergence entries to SQLite, so the gap between
// local and durable totals survives a restart of the process.
type SQLiteLedger struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Compile-time interface check.
var _ Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) a ledger at path.
// Use ":memory:" for testing.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS divergence_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			occurrence_id TEXT NOT NULL,
			name TEXT NOT NULL,
			amount INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT NOT NULL,
			failed_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// Record implements Ledger.
func (l *SQLiteLedger) Record(ctx context.Context, entry Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return ErrLedgerClosed
	}
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO divergence_entries
			(occurrence_id, name, amount, attempts, outcome, error, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.OccurrenceID, string(entry.Name), entry.Amount, entry.Attempts,
		entry.Outcome, entry.Error, entry.FailedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record divergence: %w", err)
	}
	return nil
}

// List implements Ledger.
func (l *SQLiteLedger) List(ctx context.Context, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT occurrence_id, name, amount, attempts, outcome, error, failed_at
		FROM (
			SELECT * FROM divergence_entries ORDER BY seq DESC LIMIT ?
		)
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list divergence: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var name, failedAt string
		if err := rows.Scan(&e.OccurrenceID, &name, &e.Amount, &e.Attempts, &e.Outcome, &e.Error, &failedAt); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		e.Name = event.Name(name)
		e.FailedAt, _ = time.Parse(time.RFC3339Nano, failedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate divergence: %w", err)
	}
	return entries, nil
}

// Count implements Ledger.
func (l *SQLiteLedger) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return 0, ErrLedgerClosed
	}

	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM divergence_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count divergence: %w", err)
	}
	return n, nil
}

// CountByName implements Ledger.
func (l *SQLiteLedger) CountByName(ctx context.Context) (map[event.Name]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT name, COUNT(*) FROM divergence_entries GROUP BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("count divergence by name: %w", err)
	}
	defer rows.Close()

	counts := make(map[event.Name]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan divergence count: %w", err)
		}
		counts[event.Name(name)] = n
	}
	return counts, rows.Err()
}

// Close releases the database.
func (l *SQLiteLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
