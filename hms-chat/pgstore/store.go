// Package pgstore persists chat messages in PostgreSQL.
package pgstore

import (
	"context"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id          TEXT PRIMARY KEY,
	sender      TEXT NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	sender_type TEXT NOT NULL DEFAULT '' CHECK (sender_type IN ('', 'doctor', 'patient')),
	content     TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_timestamp_idx ON chat_messages (timestamp DESC);
`

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ hmschat.Searcher = (*Store)(nil)

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool against url and verifies it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach postgres: %w", err)
	}
	return pool, nil
}

// InitTable creates the messages table when missing.
func (s *Store) InitTable(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("unable to create chat_messages table: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, message hmschat.ChatMessage) error {
	message = hmschat.Prepare(message, time.Now())
	_, err := s.db.Exec(ctx,
		`INSERT INTO chat_messages (id, sender, sender_name, sender_type, content, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		message.ID, message.Sender, message.SenderName, string(message.SenderType), message.Content, message.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message %v: %w", message.ID, err)
	}
	return nil
}

func (s *Store) ListChronological(ctx context.Context, limit int) ([]hmschat.ChatMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, sender, sender_name, sender_type, content, timestamp
		 FROM chat_messages ORDER BY timestamp DESC, id DESC LIMIT $1`,
		hmschat.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	return hmschat.Reverse(messages), nil
}

// Search matches content with strpos rather than LIKE so that % and _ in
// query are literal.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]hmschat.ChatMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, sender, sender_name, sender_type, content, timestamp
		 FROM chat_messages WHERE strpos(lower(content), lower($1)) > 0
		 ORDER BY timestamp DESC, id DESC LIMIT $2`,
		query, hmschat.SearchLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return scanMessages(rows)
}

func (s *Store) Stats(ctx context.Context) (hmschat.Statistics, error) {
	var stats hmschat.Statistics

	rows, err := s.db.Query(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE sender_type = 'doctor'),
		        count(*) FILTER (WHERE sender_type = 'patient')
		 FROM chat_messages`,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to count messages: %w", err)
	}
	_, err = pgx.ForEachRow(rows, []any{&stats.TotalMessages, &stats.ByType.Doctor, &stats.ByType.Patient}, func() error { return nil })
	if err != nil {
		return stats, fmt.Errorf("failed to read message counts: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, count(*) AS n
		 FROM chat_messages GROUP BY day ORDER BY n DESC, day DESC LIMIT 1`,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to find most active day: %w", err)
	}
	var day hmschat.DayCount
	_, err = pgx.ForEachRow(rows, []any{&day.Date, &day.Count}, func() error {
		stats.MostActiveDay = &day
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to read most active day: %w", err)
	}
	return stats, nil
}

func scanMessages(rows pgx.Rows) ([]hmschat.ChatMessage, error) {
	defer rows.Close()

	messages := []hmschat.ChatMessage{}
	for rows.Next() {
		var (
			m          hmschat.ChatMessage
			senderType string
		)
		if err := rows.Scan(&m.ID, &m.Sender, &m.SenderName, &senderType, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.SenderType = hmschat.Role(senderType)
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}
