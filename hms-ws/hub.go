package hmsws

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 64

// Hub holds the live authenticated sessions and fans frames out to them.
type Hub struct {
	Logger      zerolog.Logger
	Concurrency int // max concurrent sends per broadcast (default 64)

	sessions sync.Map // connection id -> *Session
	count    atomic.Int64
}

func NewHub(concurrency int, logger zerolog.Logger) *Hub {
	return &Hub{
		Logger:      logger,
		Concurrency: concurrency,
	}
}

func (h *Hub) Add(s *Session) {
	if _, loaded := h.sessions.LoadOrStore(s.ID(), s); !loaded {
		h.count.Add(1)
	}
}

func (h *Hub) Remove(id string) bool {
	if _, loaded := h.sessions.LoadAndDelete(id); loaded {
		h.count.Add(-1)
		return true
	}
	return false
}

func (h *Hub) Get(id string) (*Session, bool) {
	v, ok := h.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

func (h *Hub) Len() int {
	return int(h.count.Load())
}

// Sessions returns the sessions live at the time of the call.
func (h *Hub) Sessions() []*Session {
	var out []*Session
	h.sessions.Range(func(_, v interface{}) bool {
		out = append(out, v.(*Session))
		return true
	})
	return out
}

// Broadcast queues frame on every live session and returns how many
// accepted it. A session that cannot accept the frame is closed; the
// others are unaffected.
func (h *Hub) Broadcast(ctx context.Context, frame []byte) int {
	concurrency := h.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		g         errgroup.Group
		delivered atomic.Int64
	)
	g.SetLimit(concurrency)

	for _, s := range h.Sessions() {
		s := s
		g.Go(func() error {
			if err := s.Send(ctx, frame); err != nil {
				h.dropRecipient(s, err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(delivered.Load())
}

func (h *Hub) dropRecipient(s *Session, err error) {
	if errors.Is(err, ErrConnectionClosed) {
		return
	}
	h.Logger.Warn().Err(err).
		Str("connection_id", s.ID()).
		Msg("dropping recipient")
	s.closeTransport(websocket.CloseTryAgainLater, "send buffer full")
}
