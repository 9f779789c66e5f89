// Package redisstore keeps a rolling window of chat messages in a Redis list.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "hms:chat:messages"

var _ hmschat.Searcher = (*Store)(nil)

type Store struct {
	rdb      redis.UniversalClient
	key      string
	capacity int64
}

// New keeps the newest capacity messages under key.
func New(rdb redis.UniversalClient, key string, capacity int) *Store {
	if key == "" {
		key = DefaultKey
	}
	if capacity <= 0 {
		capacity = 10 * hmschat.DefaultHistoryLimit
	}
	return &Store{rdb: rdb, key: key, capacity: int64(capacity)}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to reach redis: %w", err)
	}
	return rdb, nil
}

func (s *Store) Append(ctx context.Context, message hmschat.ChatMessage) error {
	message = hmschat.Prepare(message, time.Now())
	b, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshalling message: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, b)
	pipe.LTrim(ctx, s.key, 0, s.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push message %v: %w", message.ID, err)
	}
	return nil
}

func (s *Store) ListChronological(ctx context.Context, limit int) ([]hmschat.ChatMessage, error) {
	messages, err := s.newest(ctx, int64(hmschat.Limit(limit)))
	if err != nil {
		return nil, err
	}
	return hmschat.Reverse(messages), nil
}

// Search scans the whole window; it is never larger than capacity.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]hmschat.ChatMessage, error) {
	messages, err := s.newest(ctx, s.capacity)
	if err != nil {
		return nil, err
	}
	return hmschat.SearchMessages(hmschat.Reverse(messages), query, limit), nil
}

func (s *Store) Stats(ctx context.Context) (hmschat.Statistics, error) {
	messages, err := s.newest(ctx, s.capacity)
	if err != nil {
		return hmschat.Statistics{}, err
	}
	return hmschat.Summarize(messages), nil
}

// newest returns up to n messages, newest first.
func (s *Store) newest(ctx context.Context, n int64) ([]hmschat.ChatMessage, error) {
	vals, err := s.rdb.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	messages := make([]hmschat.ChatMessage, 0, len(vals))
	for _, v := range vals {
		var m hmschat.ChatMessage
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("corrupt message in %v: %w", s.key, err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
