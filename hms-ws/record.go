package hmsws

import (
	"bytes"
	"encoding/json"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
)

// PresenceRecord is the broadcastable form of one online user. It keeps
// every field of the join payload and serializes them unchanged.
type PresenceRecord struct {
	UserID string
	fields map[string]json.RawMessage
}

// ParsePresence builds a record from a join payload. The payload must be
// an object with a non-empty string or numeric id.
func ParsePresence(data json.RawMessage) (PresenceRecord, error) {
	if !isObject(data) {
		return PresenceRecord{}, protocolErrorf("join payload must be an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return PresenceRecord{}, protocolErrorf("invalid join payload: %v", err)
	}
	id, err := hmschat.IdentifierString(fields["id"])
	if err != nil {
		return PresenceRecord{}, protocolErrorf("join id: %v", err)
	}
	if id == "" {
		return PresenceRecord{}, protocolErrorf("join payload is missing id")
	}
	return PresenceRecord{UserID: id, fields: fields}, nil
}

// NewPresenceRecord builds a record from its well known fields.
func NewPresenceRecord(id, name string, role hmschat.Role) PresenceRecord {
	fields := map[string]json.RawMessage{}
	fields["id"], _ = json.Marshal(id)
	if name != "" {
		fields["name"], _ = json.Marshal(name)
	}
	if role != "" {
		fields["role"], _ = json.Marshal(role)
	}
	return PresenceRecord{UserID: id, fields: fields}
}

func (r PresenceRecord) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return json.Marshal(map[string]string{"id": r.UserID})
	}
	return json.Marshal(r.fields)
}

// Field returns the raw value of a payload field.
func (r PresenceRecord) Field(name string) (json.RawMessage, bool) {
	v, ok := r.fields[name]
	return v, ok
}

func (r PresenceRecord) stringField(name string) string {
	var s string
	if v, ok := r.fields[name]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func (r PresenceRecord) Name() string {
	return r.stringField("name")
}

// Role reads role, falling back to the type field web clients send.
func (r PresenceRecord) Role() hmschat.Role {
	if role := r.stringField("role"); role != "" {
		return hmschat.Role(role)
	}
	return hmschat.Role(r.stringField("type"))
}

func (r PresenceRecord) Equal(other PresenceRecord) bool {
	if r.UserID != other.UserID || len(r.fields) != len(other.fields) {
		return false
	}
	for k, v := range r.fields {
		w, ok := other.fields[k]
		if !ok || !bytes.Equal(bytes.TrimSpace(v), bytes.TrimSpace(w)) {
			return false
		}
	}
	return true
}
