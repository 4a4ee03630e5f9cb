package subscribe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Backland-Labs/waitlist/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
	email      TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Subscriber is a stored subscription
type Subscriber struct {
	Email     string
	CreatedAt time.Time
}

// SQLiteSink stores subscribers locally instead of sending them to the
// mailing list
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens or creates the subscriber database at path. ":memory:"
// gives a throwaway database.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Subscribe records email. Subscribing the same address twice is not an error.
func (s *SQLiteSink) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	res, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO subscribers (email) VALUES (?)", email)
	if err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.WithField("email", email).Debug("Subscriber already recorded")
		return nil
	}
	logger.WithField("email", email).Info("Recorded subscriber locally instead of adding it to the mailing list")
	return nil
}

// List returns the stored subscribers, oldest first
func (s *SQLiteSink) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT email, created_at FROM subscribers ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.Email, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	return subscribers, rows.Err()
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
