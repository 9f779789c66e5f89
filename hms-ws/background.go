package hmsws

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTaskLimit   = 256
	defaultTaskTimeout = 10 * time.Second
)

// background runs work that must not hold up delivery, such as
// persistence and event mirroring, and lets shutdown wait for it. At most
// limit tasks run at once; Go blocks the caller while the runner is full.
type background struct {
	logger  zerolog.Logger
	timeout time.Duration
	group   errgroup.Group
}

func newBackground(logger zerolog.Logger, timeout time.Duration, limit int) *background {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	if limit <= 0 {
		limit = defaultTaskLimit
	}
	b := &background{logger: logger, timeout: timeout}
	b.group.SetLimit(limit)
	return b
}

// Go runs fn with its own timeout. Failures are logged, never returned, so
// one failed task does not mark the group as failed.
func (b *background) Go(name string, fn func(ctx context.Context) error) {
	b.group.Go(func() error {
		ctx, cancel := context.WithTimeout(b.logger.WithContext(context.Background()), b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			b.logger.Error().Err(err).Str("task", name).Msg("background task failed")
		}
		return nil
	})
}

// Wait blocks until pending work finishes or ctx is done.
func (b *background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = b.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
