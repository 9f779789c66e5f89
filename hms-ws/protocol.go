package hmsws

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event names carried in the envelope.
const (
	EventJoin        = "join"
	EventSendMessage = "sendMessage"
	EventPing        = "ping"
	EventPong        = "pong"
	EventOnlineUsers = "onlineUsers"
	EventMessage     = "message"
	EventError       = "error"
)

// Error codes carried by outbound error events.
const (
	CodeProtocolError    = "protocol_error"
	CodeNotAuthenticated = "not_authenticated"
	CodeSessionReplaced  = "session_replaced"
)

// Message is one frame of the chat protocol.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the data of an outbound error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseMessage parses a chat protocol frame.
func ParseMessage(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: invalid frame: %v", ErrProtocol, err)
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrProtocol)
	}
	return &msg, nil
}

// encode writes the envelope by hand so data is embedded byte for byte;
// json.Marshal would compact and re-escape it.
func encode(event string, data json.RawMessage) ([]byte, error) {
	name, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshalling %v event: %w", event, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(name) + len(data) + 20)
	buf.WriteString(`{"event":`)
	buf.Write(name)
	if len(data) > 0 {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%v event data is not valid json", event)
		}
		buf.WriteString(`,"data":`)
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OnlineUsersMessage returns an onlineUsers event carrying the roster.
func OnlineUsersMessage(users []PresenceRecord) ([]byte, error) {
	if users == nil {
		users = []PresenceRecord{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("marshalling roster: %w", err)
	}
	return encode(EventOnlineUsers, data)
}

// ChatMessage wraps a relayed payload in a message event. The payload
// bytes are embedded unchanged.
func ChatMessage(data json.RawMessage) ([]byte, error) {
	return encode(EventMessage, data)
}

// ErrorMessage returns an error event.
func ErrorMessage(code, message string) []byte {
	data, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	b, _ := encode(EventError, data)
	return b
}

// PongMessage returns a pong event.
func PongMessage() []byte {
	b, _ := encode(EventPong, nil)
	return b
}

func isObject(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{' && json.Valid(data)
}
