package hmsws

import (
	"time"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/urfave/cli/v2"
)

var WSOpts struct {
	Path           string
	TokenParam     string
	AllowedOrigins string
	EvictStale     bool
	SendBuffer     int
	MaxMessageSize int
	Concurrency    int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingInterval   time.Duration
	TaskTimeout    time.Duration
	TaskLimit      int
}

var Flags = []cli.Flag{
	hmscli.StringFlag("ws-path", "websocket endpoint path", &WSOpts.Path, "/ws"),
	hmscli.StringFlag("ws-token-param", "query parameter carrying the bearer token", &WSOpts.TokenParam, "token"),
	hmscli.StringFlag("allowed-origins", "comma separated websocket origins, * for any", &WSOpts.AllowedOrigins, "*"),
	hmscli.BoolFlag("evict-stale", "close a user's older connection when it joins again", &WSOpts.EvictStale, true),
	hmscli.IntFlag("send-buffer", "frames queued per connection before it is dropped", &WSOpts.SendBuffer, 256),
	hmscli.IntFlag("max-message-size", "largest inbound frame in bytes", &WSOpts.MaxMessageSize, 64*1024),
	hmscli.IntFlag("fanout-concurrency", "concurrent sends per broadcast", &WSOpts.Concurrency, defaultConcurrency),
	hmscli.DurationFlag("write-wait", "time allowed to write a frame", &WSOpts.WriteWait, 10*time.Second),
	hmscli.DurationFlag("pong-wait", "idle time before a silent connection is dropped", &WSOpts.PongWait, 60*time.Second),
	hmscli.DurationFlag("ping-interval", "how often the server pings clients", &WSOpts.PingInterval, 54*time.Second),
	hmscli.DurationFlag("task-timeout", "timeout for each persistence or publish call", &WSOpts.TaskTimeout, 10*time.Second),
	hmscli.IntFlag("task-limit", "persistence and publish calls in flight before relaying waits", &WSOpts.TaskLimit, defaultTaskLimit),
}
