package hmsws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	hmsauth "github.com/ahmadijaz02/hms-go-chat/hms-auth"
	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Options struct {
	Validator   hmsauth.Validator
	Store       hmschat.Store     // nil disables persistence
	Publisher   publish.Publisher // nil disables event mirroring
	Metrics     Metrics           // nil disables metrics
	Logger      zerolog.Logger
	EvictStale  bool          // close older connections of a user on join
	Concurrency int           // fan-out concurrency
	TaskTimeout time.Duration // bound on each persistence or publish call
	TaskLimit   int           // persistence and publish calls in flight
}

type eventHandler func(ctx context.Context, s *Session, data json.RawMessage) error

// Controller drives each connection through pending, authenticated,
// joined and closed, and turns registry changes into roster broadcasts.
type Controller struct {
	Registry *Registry
	Hub      *Hub
	Presence *PresenceBroadcaster
	Relay    *MessageRelay

	validator  hmsauth.Validator
	metrics    Metrics
	tasks      *background
	logger     zerolog.Logger
	evictStale bool
	handlers   map[string]eventHandler
	draining   atomic.Bool
}

func NewController(opts Options) *Controller {
	var (
		logger   = opts.Logger
		registry = NewRegistry()
		hub      = NewHub(opts.Concurrency, logger)
		presence = NewPresenceBroadcaster(registry, hub, logger)
		relay    = NewMessageRelay(hub, opts.Store, logger)
	)
	presence.publisher = opts.Publisher
	presence.tasks = newBackground(logger, opts.TaskTimeout, opts.TaskLimit)
	relay.publisher = opts.Publisher
	relay.tasks = newBackground(logger, opts.TaskTimeout, opts.TaskLimit)

	c := &Controller{
		Registry:   registry,
		Hub:        hub,
		Presence:   presence,
		Relay:      relay,
		validator:  opts.Validator,
		metrics:    opts.Metrics,
		tasks:      newBackground(logger, opts.TaskTimeout, opts.TaskLimit),
		logger:     logger,
		evictStale: opts.EvictStale,
	}
	c.handlers = map[string]eventHandler{
		EventJoin:        c.onJoin,
		EventSendMessage: c.onSendMessage,
		EventPing:        c.onPing,
	}
	return c
}

// Open authenticates a new connection with its handshake token. On failure
// the transport is closed, nothing is sent and the error wraps
// ErrAuthentication.
func (c *Controller) Open(ctx context.Context, conn Conn, token string) (*Session, error) {
	s := newSession(conn, c.logger)

	switch {
	case token == "":
		return s, c.reject(ctx, s, "missing token")
	case c.validator == nil || !c.validator.Validate(token):
		return s, c.reject(ctx, s, "invalid token")
	}

	if !s.advance(StateAuthenticated, StatePending) {
		return s, ErrConnectionClosed
	}
	c.Hub.Add(s)

	logger := s.Logger()
	logger.Debug().Msg("connection authenticated")
	c.gauge(hmscli.ConnectionsMetric, float64(c.Hub.Len()))
	return s, nil
}

func (c *Controller) reject(ctx context.Context, s *Session, reason string) error {
	s.markClosed()
	s.closeTransport(CloseUnauthorized, "unauthorized")

	logger := s.Logger()
	logger.Info().Str("reason", reason).Msg("rejected connection")
	c.event(hmscli.AuthFailureMetric)
	return fmt.Errorf("%w: %v", ErrAuthentication, reason)
}

// HandleFrame parses and dispatches one inbound frame.
func (c *Controller) HandleFrame(ctx context.Context, s *Session, frame []byte) error {
	msg, err := ParseMessage(frame)
	if err != nil {
		if s.State() == StatePending {
			return c.rejectPending(ctx, s)
		}
		c.protocolError(ctx, s, err)
		return err
	}
	return c.Handle(ctx, s, *msg)
}

// Handle dispatches one event. Events before authentication close the
// connection; protocol errors are reported to the client and the
// connection stays open.
func (c *Controller) Handle(ctx context.Context, s *Session, msg Message) error {
	switch s.State() {
	case StatePending:
		return c.rejectPending(ctx, s)
	case StateClosed:
		return ErrConnectionClosed
	}

	handler, ok := c.handlers[msg.Event]
	if !ok {
		err := protocolErrorf("unknown event %q", msg.Event)
		c.protocolError(ctx, s, err)
		return err
	}
	if err := handler(ctx, s, msg.Data); err != nil {
		if errors.Is(err, ErrProtocol) {
			c.protocolError(ctx, s, err)
		}
		return err
	}
	return nil
}

func (c *Controller) rejectPending(ctx context.Context, s *Session) error {
	logger := s.Logger()
	logger.Warn().Msg("event received before authentication")
	_ = s.Send(ctx, ErrorMessage(CodeNotAuthenticated, "authenticate before sending events"))
	c.close(ctx, s, websocket.ClosePolicyViolation, "not authenticated")
	return ErrNotAuthenticated
}

func (c *Controller) protocolError(ctx context.Context, s *Session, err error) {
	logger := s.Logger()
	logger.Warn().Err(err).Msg("dropping event")
	_ = s.Send(ctx, ErrorMessage(errorCode(err), err.Error()))
}

func (c *Controller) onJoin(ctx context.Context, s *Session, data json.RawMessage) error {
	record, err := ParsePresence(data)
	if err != nil {
		return err
	}
	if !s.advance(StateJoined, StateAuthenticated, StateJoined) {
		return ErrConnectionClosed
	}
	s.setPresence(record)

	var evicted []string
	if c.evictStale {
		evicted = c.Registry.JoinExclusive(s.ID(), record.UserID, record)
	} else {
		c.Registry.Join(s.ID(), record.UserID, record)
	}
	if s.State() == StateClosed {
		// closed while joining; undo so no record outlives the connection
		c.Registry.Leave(s.ID())
		return ErrConnectionClosed
	}

	logger := s.Logger()
	logger.Info().Str("name", record.Name()).Str("role", string(record.Role())).Msg("user joined")

	for _, id := range evicted {
		c.evict(ctx, id)
	}
	c.Presence.BroadcastOnlineUsers(ctx)
	c.gauge(hmscli.OnlineUsersMetric, float64(c.Registry.Len()))
	return nil
}

// evict tells a replaced connection why and closes it. Its registry entry
// is already gone, so its own close does not broadcast.
func (c *Controller) evict(ctx context.Context, connID string) {
	other, ok := c.Hub.Get(connID)
	if !ok {
		return
	}
	logger := other.Logger()
	logger.Info().Msg("evicting stale connection")
	_ = other.Send(ctx, ErrorMessage(CodeSessionReplaced, "signed in from another connection"))
	// registry entry is already gone, so this does not rebroadcast
	c.close(ctx, other, websocket.CloseNormalClosure, "session replaced")
	c.event(hmscli.EvictionMetric)
}

func (c *Controller) onSendMessage(ctx context.Context, s *Session, data json.RawMessage) error {
	delivered, err := c.Relay.Relay(ctx, s, data)
	if err != nil {
		return err
	}
	logger := s.Logger()
	logger.Debug().Int("delivered", delivered).Msg("relayed message")
	c.event(hmscli.RelayedMetric)
	return nil
}

func (c *Controller) onPing(ctx context.Context, s *Session, _ json.RawMessage) error {
	return s.Send(ctx, PongMessage())
}

// Close ends a session. The roster is rebroadcast only when the session
// had joined. Safe to call more than once.
func (c *Controller) Close(ctx context.Context, s *Session) {
	c.close(ctx, s, websocket.CloseNormalClosure, "")
}

func (c *Controller) close(ctx context.Context, s *Session, code int, reason string) {
	if !s.markClosed() {
		return
	}
	c.Hub.Remove(s.ID())
	s.closeTransport(code, reason)

	userID, ok := c.Registry.Leave(s.ID())
	logger := s.Logger()
	logger.Debug().Bool("joined", ok).Msg("connection closed")
	c.gauge(hmscli.ConnectionsMetric, float64(c.Hub.Len()))
	if !ok || c.draining.Load() {
		return
	}

	logger.Info().Str("departed", userID).Msg("user left")
	c.Presence.BroadcastOnlineUsers(ctx)
	c.gauge(hmscli.OnlineUsersMetric, float64(c.Registry.Len()))
}

// Shutdown closes every session, clears the registry and waits for
// pending persistence and publishing.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.draining.Store(true)
	for _, s := range c.Hub.Sessions() {
		c.close(ctx, s, websocket.CloseGoingAway, "server shutting down")
	}
	c.Registry.Clear()

	if err := c.Relay.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for pending messages: %w", err)
	}
	if err := c.Presence.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for presence publishing: %w", err)
	}
	return c.tasks.Wait(ctx)
}

func (c *Controller) event(name hmscli.MetricName) {
	if c.metrics == nil {
		return
	}
	c.tasks.Go("metric", func(ctx context.Context) error {
		c.metrics.Event(ctx, name)
		return nil
	})
}

func (c *Controller) gauge(name hmscli.MetricName, value float64) {
	if c.metrics == nil {
		return
	}
	c.tasks.Go("metric", func(ctx context.Context) error {
		c.metrics.Gauge(ctx, name, value)
		return nil
	})
}
