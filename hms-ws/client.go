package hmsws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ClientConfig bounds one websocket connection.
type ClientConfig struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingInterval   time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	return c
}

// Client adapts a gorilla websocket connection to Conn. Frames are queued
// and written by WritePump; ReadPump delivers inbound frames.
type Client struct {
	id     string
	ws     *websocket.Conn
	config ClientConfig
	logger zerolog.Logger

	mu          sync.Mutex
	send        chan []byte
	closed      bool
	closeCode   int
	closeReason string
	started     bool
}

func NewClient(ws *websocket.Conn, config ClientConfig, logger zerolog.Logger) *Client {
	config = config.withDefaults()
	id := uuid.NewString()
	return &Client{
		id:        id,
		ws:        ws,
		config:    config,
		logger:    logger.With().Str("connection_id", id).Logger(),
		send:      make(chan []byte, config.SendBuffer),
		closeCode: websocket.CloseNormalClosure,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(_ context.Context, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (c *Client) Close() error {
	return c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith stops accepting frames. Queued frames are still written,
// followed by a close frame carrying code and reason. Without a running
// write pump the queue is flushed on its own goroutine.
func (c *Client) CloseWith(code int, reason string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.send)
	started := c.started
	c.mu.Unlock()

	if !started {
		go c.flush()
	}
	return nil
}

// flush writes what is queued and closes the socket when no write pump
// is running.
func (c *Client) flush() {
	for frame := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			break
		}
	}
	c.writeClose()
	_ = c.ws.Close()
}

func (c *Client) writeClose() {
	c.mu.Lock()
	msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
	c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.config.WriteWait))
}

// writePump drains the send queue and pings the peer until the client is
// closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

// ReadPump calls fn for every inbound text frame until the connection
// fails, the peer closes it, or no pong arrives within PongWait.
func (c *Client) ReadPump(fn func(frame []byte)) {
	c.ws.SetReadLimit(c.config.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		kind, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug().Err(err).Msg("connection closed unexpectedly")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
		if kind != websocket.TextMessage {
			continue
		}
		fn(frame)
	}
}

// Start launches the write pump. Frames queued before Start are written
// first.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.started {
		return
	}
	c.started = true
	go c.writePump()
}
