package hmsws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Conn is one live transport session.
type Conn interface {
	ID() string
	// Send queues one frame without blocking.
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// codeCloser is implemented by transports that can report a close reason.
type codeCloser interface {
	CloseWith(code int, reason string) error
}

// CloseUnauthorized is the close code sent when the handshake token is
// missing or rejected.
const CloseUnauthorized = 4401

type State int32

const (
	StatePending State = iota
	StateAuthenticated
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session tracks the lifecycle state of one connection.
type Session struct {
	conn  Conn
	state atomic.Int32

	mu       sync.Mutex
	base     zerolog.Logger
	logger   zerolog.Logger
	presence *PresenceRecord
}

func newSession(conn Conn, logger zerolog.Logger) *Session {
	logger = logger.With().Str("connection_id", conn.ID()).Logger()
	return &Session{
		conn:   conn,
		base:   logger,
		logger: logger,
	}
}

func (s *Session) ID() string { return s.conn.ID() }

func (s *Session) Logger() zerolog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Send(ctx context.Context, frame []byte) error {
	return s.conn.Send(ctx, frame)
}

// Presence returns the record this session last joined with.
func (s *Session) Presence() (PresenceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presence == nil {
		return PresenceRecord{}, false
	}
	return *s.presence, true
}

func (s *Session) setPresence(record PresenceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = &record
	s.logger = s.base.With().Str("user_id", record.UserID).Logger()
}

// advance moves from one of the from states to next. It fails once the
// session is closed.
func (s *Session) advance(next State, from ...State) bool {
	for _, f := range from {
		if s.state.CompareAndSwap(int32(f), int32(next)) {
			return true
		}
	}
	return false
}

// markClosed reports whether this call performed the transition.
func (s *Session) markClosed() bool {
	return State(s.state.Swap(int32(StateClosed))) != StateClosed
}

func (s *Session) closeTransport(code int, reason string) {
	if cc, ok := s.conn.(codeCloser); ok {
		_ = cc.CloseWith(code, reason)
		return
	}
	_ = s.conn.Close()
}
