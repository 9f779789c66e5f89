// Package publish mirrors gateway events to external streams so other
// services (notifications, audit) can follow the chat.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Topics published by the gateway.
const (
	TopicMessage  = "chat.message"
	TopicPresence = "chat.presence"
)

// Envelope is the record format written to every sink.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher sends one event to a sink.
type Publisher interface {
	Send(ctx context.Context, topic string, payload interface{}) error
}

func marshalEnvelope(topic string, payload interface{}) ([]byte, error) {
	var payloadBytes []byte
	switch v := payload.(type) {
	case json.RawMessage:
		payloadBytes = v
	case []byte:
		payloadBytes = v
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling payload: %w", err)
		}
		payloadBytes = b
	}

	data, err := json.Marshal(Envelope{
		Topic:   topic,
		Payload: payloadBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling envelope: %w", err)
	}
	return data, nil
}

// Multi sends to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Send(ctx context.Context, topic string, payload interface{}) error {
	var errs []error
	for _, p := range m {
		if err := p.Send(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
