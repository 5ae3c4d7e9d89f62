// Package holidaystore persists holiday records in a SQLite table. It is
// the durable fallback behind the in-memory holiday cache and the backing
// store of the /holidays endpoints.
package holidaystore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Holiday is one stored holiday row. Country is kept lowercase.
type Holiday struct {
	ID          int64  `json:"id,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Country     string `json:"country"`
}

// Store wraps a single SQLite handle. Every operation runs inside one
// critical section; no transaction spans multiple statements.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		country TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close() //nolint:errcheck // open failed, best effort close
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add inserts one holiday and returns its row id.
func (s *Store) Add(ctx context.Context, h Holiday) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO holidays (date, description, country) VALUES (?, ?, ?)",
		h.Date, h.Description, h.Country)
	if err != nil {
		return 0, fmt.Errorf("inserting holiday %s: %w", h.Date, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// ByCountry returns the stored holidays of one country. An unknown country
// yields an empty list, not an error.
func (s *Store) ByCountry(ctx context.Context, country string) ([]Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, description, country FROM holidays WHERE country = ?", country)
	if err != nil {
		return nil, fmt.Errorf("querying holidays for %s: %w", country, err)
	}
	return scanHolidays(rows)
}

// All returns every stored holiday.
func (s *Store) All(ctx context.Context) ([]Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, description, country FROM holidays")
	if err != nil {
		return nil, fmt.Errorf("querying holidays: %w", err)
	}
	return scanHolidays(rows)
}

// Delete removes one holiday by row id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting holiday %d: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanHolidays(rows *sql.Rows) ([]Holiday, error) {
	defer func() {
		_ = rows.Close() //nolint:errcheck // read-only cursor
	}()

	holidays := []Holiday{}
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Description, &h.Country); err != nil {
			return nil, fmt.Errorf("scanning holiday row: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holiday rows: %w", err)
	}
	return holidays, nil
}
