package hmsws

import (
	"context"
	"sync"

	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/rs/zerolog"
)

// PresenceBroadcaster sends the online roster to every live session.
type PresenceBroadcaster struct {
	registry  *Registry
	hub       *Hub
	publisher publish.Publisher
	tasks     *background
	logger    zerolog.Logger

	// serializes snapshot and enqueue so every client sees rosters in the
	// order they were taken
	mu sync.Mutex
}

func NewPresenceBroadcaster(registry *Registry, hub *Hub, logger zerolog.Logger) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		registry: registry,
		hub:      hub,
		tasks:    newBackground(logger, 0, 0),
		logger:   logger,
	}
}

// BroadcastOnlineUsers snapshots the registry and fans the roster out. It
// returns the number of sessions that accepted it.
func (p *PresenceBroadcaster) BroadcastOnlineUsers(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.registry.SnapshotOnlineUsers()
	frame, err := OnlineUsersMessage(users)
	if err != nil {
		p.logger.Error().Err(err).Msg("unable to encode roster")
		return 0
	}
	delivered := p.hub.Broadcast(ctx, frame)

	p.logger.Debug().
		Int("online", len(users)).
		Int("delivered", delivered).
		Msg("broadcast online users")

	if p.publisher != nil {
		p.tasks.Go("publish presence", func(ctx context.Context) error {
			return p.publisher.Send(ctx, publish.TopicPresence, users)
		})
	}
	return delivered
}

// Wait blocks until pending roster publishing finishes.
func (p *PresenceBroadcaster) Wait(ctx context.Context) error {
	return p.tasks.Wait(ctx)
}
