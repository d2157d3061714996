package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// Exchange is one recorded conversation turn: an inbound message and
// the reply composed for it. Scheduled musings have an empty Message.
type Exchange struct {
	ID        int64
	ChatID    int64
	Message   string
	Reply     string
	CreatedAt time.Time
}

// Stats summarizes a chat's recorded activity.
type Stats struct {
	Exchanges int
	Musings   int
	FirstSeen *time.Time
}

// DB wraps the SQLite database connection and provides the transcript
// log. Engine state (frequency cache, session credential) is never
// persisted here; this is delivery-surface bookkeeping only.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		message TEXT NOT NULL,
		reply TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_chat_id ON exchanges(chat_id);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// RecordExchange appends a conversation turn to the transcript.
func (db *DB) RecordExchange(ctx context.Context, chatID int64, message, reply string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO exchanges (chat_id, message, reply, created_at) VALUES (?, ?, ?, ?)`,
		chatID, message, reply, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// RecentExchanges returns the latest turns for a chat, newest first.
func (db *DB) RecentExchanges(ctx context.Context, chatID int64, limit int) ([]Exchange, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, chat_id, message, reply, created_at
		 FROM exchanges WHERE chat_id = ?
		 ORDER BY id DESC LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.ChatID, &e.Message, &e.Reply, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// GetStats returns activity counters for a chat.
func (db *DB) GetStats(ctx context.Context, chatID int64) (*Stats, error) {
	stats := &Stats{}
	var firstSeen sql.NullTime

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN message = '' THEN 1 END),
		        MIN(created_at)
		 FROM exchanges WHERE chat_id = ?`,
		chatID,
	).Scan(&stats.Exchanges, &stats.Musings, &firstSeen)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	if firstSeen.Valid {
		stats.FirstSeen = &firstSeen.Time
	}
	return stats, nil
}

// GetSetting retrieves a setting value by key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting value.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
