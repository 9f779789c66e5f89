package hmsws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/rs/zerolog"
)

// MessageRelay forwards chat payloads to every live session and hands them
// to the store without waiting on it.
type MessageRelay struct {
	hub       *Hub
	store     hmschat.Store
	publisher publish.Publisher
	tasks     *background
	logger    zerolog.Logger
}

func NewMessageRelay(hub *Hub, store hmschat.Store, logger zerolog.Logger) *MessageRelay {
	return &MessageRelay{
		hub:    hub,
		store:  store,
		tasks:  newBackground(logger, 0, 0),
		logger: logger,
	}
}

// Relay broadcasts data, unchanged, as a message event to every live
// session including the sender.
func (m *MessageRelay) Relay(ctx context.Context, sender *Session, data json.RawMessage) (int, error) {
	if !isObject(data) {
		return 0, protocolErrorf("sendMessage payload must be an object")
	}
	frame, err := ChatMessage(data)
	if err != nil {
		return 0, protocolErrorf("%v", err)
	}

	delivered := m.hub.Broadcast(ctx, frame)

	// the payload buffer belongs to the reader; keep a private copy
	payload := append(json.RawMessage(nil), data...)
	if m.store != nil {
		m.tasks.Go("persist message", func(ctx context.Context) error {
			return m.persist(ctx, sender, payload)
		})
	}
	if m.publisher != nil {
		m.tasks.Go("publish message", func(ctx context.Context) error {
			return m.publisher.Send(ctx, publish.TopicMessage, payload)
		})
	}
	return delivered, nil
}

func (m *MessageRelay) persist(ctx context.Context, sender *Session, payload json.RawMessage) error {
	message, err := hmschat.DecodeMessage(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if presence, ok := sender.Presence(); ok {
		if message.Sender == "" {
			message.Sender = presence.UserID
		}
		if message.SenderName == "" {
			message.SenderName = presence.Name()
		}
		if message.SenderType == "" {
			message.SenderType = presence.Role()
		}
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	if err := message.Validate(); err != nil {
		return fmt.Errorf("%w: not persisting message: %v", ErrStorage, err)
	}
	if err := m.store.Append(ctx, message); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Wait blocks until pending persistence and publishing finish.
func (m *MessageRelay) Wait(ctx context.Context) error {
	return m.tasks.Wait(ctx)
}
