package hmsws

import (
	"encoding/json"
	"errors"
	"testing"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/tj/assert"
)

func TestProtocol(t *testing.T) {
	t.Run("ParseMessage", func(t *testing.T) {
		msg, err := ParseMessage([]byte(`{"event":"join","data":{"id":"u1"}}`))
		assert.NoError(t, err)
		assert.Equal(t, EventJoin, msg.Event)
		assert.JSONEq(t, `{"id":"u1"}`, string(msg.Data))
	})

	t.Run("ParseMessage missing event", func(t *testing.T) {
		_, err := ParseMessage([]byte(`{"data":{}}`))
		assert.True(t, errors.Is(err, ErrProtocol))
	})

	t.Run("ParseMessage invalid json", func(t *testing.T) {
		_, err := ParseMessage([]byte(`{"event":`))
		assert.True(t, errors.Is(err, ErrProtocol))
	})

	t.Run("ChatMessage keeps payload bytes", func(t *testing.T) {
		payload := json.RawMessage(`{ "sender": "u1",  "content": "<b>hi</b> & bye" }`)
		frame, err := ChatMessage(payload)
		assert.NoError(t, err)
		assert.Equal(t, `{"event":"message","data":`+string(payload)+`}`, string(frame))
	})

	t.Run("ChatMessage rejects invalid json", func(t *testing.T) {
		_, err := ChatMessage(json.RawMessage(`{"a":`))
		assert.Error(t, err)
	})

	t.Run("OnlineUsersMessage", func(t *testing.T) {
		frame, err := OnlineUsersMessage(nil)
		assert.NoError(t, err)
		assert.Equal(t, `{"event":"onlineUsers","data":[]}`, string(frame))

		frame, err = OnlineUsersMessage([]PresenceRecord{NewPresenceRecord("u1", "Alice", hmschat.RolePatient)})
		assert.NoError(t, err)
		assert.JSONEq(t, `{"event":"onlineUsers","data":[{"id":"u1","name":"Alice","role":"patient"}]}`, string(frame))
	})

	t.Run("ErrorMessage", func(t *testing.T) {
		assert.JSONEq(t,
			`{"event":"error","data":{"code":"protocol_error","message":"nope"}}`,
			string(ErrorMessage(CodeProtocolError, "nope")))
	})

	t.Run("PongMessage", func(t *testing.T) {
		assert.Equal(t, `{"event":"pong"}`, string(PongMessage()))
	})

	t.Run("errorCode", func(t *testing.T) {
		assert.Equal(t, CodeNotAuthenticated, errorCode(ErrNotAuthenticated))
		assert.Equal(t, CodeProtocolError, errorCode(protocolErrorf("x")))
	})
}

func TestParsePresence(t *testing.T) {
	t.Run("keeps every field", func(t *testing.T) {
		record, err := ParsePresence(json.RawMessage(`{"id":"u1","name":"Alice","type":"patient","avatar":{"url":"a.png"}}`))
		assert.NoError(t, err)
		assert.Equal(t, "u1", record.UserID)
		assert.Equal(t, "Alice", record.Name())
		assert.Equal(t, hmschat.RolePatient, record.Role())

		avatar, ok := record.Field("avatar")
		assert.True(t, ok)
		assert.JSONEq(t, `{"url":"a.png"}`, string(avatar))

		b, err := json.Marshal(record)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"id":"u1","name":"Alice","type":"patient","avatar":{"url":"a.png"}}`, string(b))
	})

	t.Run("numeric id", func(t *testing.T) {
		record, err := ParsePresence(json.RawMessage(`{"id":42,"name":"Bob","role":"doctor"}`))
		assert.NoError(t, err)
		assert.Equal(t, "42", record.UserID)
		assert.Equal(t, hmschat.RoleDoctor, record.Role())

		b, err := json.Marshal(record)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"id":42,"name":"Bob","role":"doctor"}`, string(b))
	})

	for name, payload := range map[string]string{
		"missing id":    `{"name":"Alice"}`,
		"empty id":      `{"id":""}`,
		"null id":       `{"id":null}`,
		"object id":     `{"id":{"x":1}}`,
		"not an object": `["u1"]`,
		"empty":         ``,
	} {
		payload := payload
		t.Run(name, func(t *testing.T) {
			_, err := ParsePresence(json.RawMessage(payload))
			assert.True(t, errors.Is(err, ErrProtocol))
		})
	}

	t.Run("equal", func(t *testing.T) {
		a, _ := ParsePresence(json.RawMessage(`{"id":"u1","name":"Alice"}`))
		b, _ := ParsePresence(json.RawMessage(`{"name":"Alice","id":"u1"}`))
		c, _ := ParsePresence(json.RawMessage(`{"id":"u1","name":"Al"}`))
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}
