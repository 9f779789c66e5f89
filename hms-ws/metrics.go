package hmsws

import (
	"context"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
)

// Metrics is satisfied by hmscli.Metrics.
type Metrics interface {
	Event(ctx context.Context, name hmscli.MetricName, dimensions ...map[hmscli.DimensionName]string)
	Gauge(ctx context.Context, name hmscli.MetricName, value float64, dimensions ...map[hmscli.DimensionName]string)
}
