package hmsws

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

func TestClientCloseBeforeStart(t *testing.T) {
	t.Run("queued frames go out ahead of the close", func(t *testing.T) {
		ctx := context.Background()
		ws, peer := wsPair(t)
		c := NewClient(ws, ClientConfig{}, zerolog.Nop())

		assert.NoError(t, c.Send(ctx, []byte(`{"event":"pong"}`)))
		assert.NoError(t, c.CloseWith(websocket.CloseTryAgainLater, "later"))

		err := c.Send(ctx, []byte(`{"event":"pong"}`))
		assert.True(t, errors.Is(err, ErrConnectionClosed))
		c.Start()

		readEvent(t, peer, EventPong)
		expectClose(t, peer, websocket.CloseTryAgainLater)
	})

	t.Run("does not wait on a peer that is not reading", func(t *testing.T) {
		ctx := context.Background()
		ws, _ := wsPair(t)
		c := NewClient(ws, ClientConfig{SendBuffer: 64, WriteWait: 3 * time.Second}, zerolog.Nop())

		// far more than the socket buffers hold
		frame := bytes.Repeat([]byte("x"), 1<<20)
		for i := 0; i < 32; i++ {
			assert.NoError(t, c.Send(ctx, frame))
		}

		started := time.Now()
		assert.NoError(t, c.CloseWith(websocket.CloseNormalClosure, ""))
		assert.True(t, time.Since(started) < time.Second)
	})
}
