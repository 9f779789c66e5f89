// Package hmschat defines the chat message model and the storage contract
// shared by the gateway and the history service.
package hmschat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultHistoryLimit is the number of messages returned by history reads
// when the caller does not ask for a specific amount.
const DefaultHistoryLimit = 100

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// ChatMessage is the persisted form of a relayed chat payload.
type ChatMessage struct {
	ID         string    `json:"id,omitempty"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	SenderType Role      `json:"senderType"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrTimestampRange = errors.New("timestamp out of range")
)

// Timestamps must fit in int64 nanoseconds since the Unix epoch, which is
// what the time ordered sort keys are built from.
var (
	minTimestamp = time.Unix(0, 0).UTC()
	maxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

func timestampInRange(ts time.Time) bool {
	return !ts.Before(minTimestamp) && !ts.After(maxTimestamp)
}

// DecodeMessage reads the persisted fields out of a relayed payload. The
// sender id may be a string or a number and the timestamp may be RFC 3339
// text or epoch milliseconds.
func DecodeMessage(data []byte) (ChatMessage, error) {
	var raw struct {
		ID         string          `json:"id"`
		Sender     json.RawMessage `json:"sender"`
		SenderName string          `json:"senderName"`
		SenderType Role            `json:"senderType"`
		Content    string          `json:"content"`
		Timestamp  json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatMessage{}, fmt.Errorf("unable to decode chat message: %w", err)
	}

	sender, err := IdentifierString(raw.Sender)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("invalid sender: %w", err)
	}
	ts, err := decodeTimestamp(raw.Timestamp)
	if err != nil {
		return ChatMessage{}, err
	}

	return ChatMessage{
		ID:         raw.ID,
		Sender:     sender,
		SenderName: raw.SenderName,
		SenderType: raw.SenderType,
		Content:    raw.Content,
		Timestamp:  ts,
	}, nil
}

// Validate checks the message is complete enough to persist.
func (m ChatMessage) Validate() error {
	if m.Content == "" {
		return ErrEmptyContent
	}
	if m.Sender == "" {
		return errors.New("message sender is empty")
	}
	if m.SenderType != "" && !m.SenderType.Valid() {
		return fmt.Errorf("unknown sender type %q", m.SenderType)
	}
	if !m.Timestamp.IsZero() && !timestampInRange(m.Timestamp) {
		return fmt.Errorf("%w: %v", ErrTimestampRange, m.Timestamp)
	}
	return nil
}

// IdentifierString normalizes a JSON string or number identifier to text.
// A missing or null value yields the empty string.
func IdentifierString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("identifier must be a string or a number")
		}
		return n.String(), nil
	}
}

func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	var ts time.Time
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
		}
	} else {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		ts = time.UnixMilli(ms).UTC()
	}
	if !timestampInRange(ts) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTimestampRange, ts)
	}
	return ts, nil
}
