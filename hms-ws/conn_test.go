package hmsws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/tj/assert"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	closed bool
	code   int
	reason string
	fail   error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(_ context.Context, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnectionClosed
	}
	if f.fail != nil {
		return f.fail
	}
	f.frames = append(f.frames, append([]byte(nil), frame...))
	return nil
}

func (f *fakeConn) Close() error { return f.CloseWith(1000, "") }

func (f *fakeConn) CloseWith(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed, f.code, f.reason = true, code, reason
	}
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) raw() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func (f *fakeConn) events(t *testing.T) []Message {
	var out []Message
	for _, frame := range f.raw() {
		var m Message
		assert.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) named(t *testing.T, event string) []Message {
	var out []Message
	for _, m := range f.events(t) {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}
