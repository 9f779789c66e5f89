// Package hmskinesis consumes the chat events the gateway mirrors to
// Kinesis, either as a Lambda stream handler or as a long running
// console consumer.
package hmskinesis

import (
	"context"
	"fmt"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	consumer "github.com/harlow/kinesis-consumer"
	"github.com/rs/zerolog"
)

type HandleMessageCallback func(ctx context.Context, record events.KinesisEventRecord) error

type Handler struct {
	Service       hmscli.Service
	Logger        zerolog.Logger
	handleMessage HandleMessageCallback
}

func NewHandler(service hmscli.Service, handleMessage HandleMessageCallback) *Handler {
	return &Handler{
		Service:       service,
		Logger:        hmscli.Logger(service),
		handleMessage: handleMessage,
	}
}

// Start runs the handler under Lambda unless console mode is set.
func (h *Handler) Start(ctx context.Context) error {
	if !hmscli.CommonOpts.Console {
		lambda.Start(h.HandleKinesisEvent)
		return nil
	}
	return h.handleRealtime(ctx)
}

func (h *Handler) HandleKinesisEvent(ctx context.Context, event events.KinesisEvent) error {
	ctx = h.Logger.WithContext(ctx)
	for _, r := range event.Records {
		if err := h.handleSingleEvent(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

type KinesisSequenceNumberKeyType string

var KinesisSequenceNumberKey = KinesisSequenceNumberKeyType("kinesisSequenceNumber")

func (h *Handler) handleSingleEvent(ctx context.Context, r events.KinesisEventRecord) error {
	ctx = context.WithValue(ctx, KinesisSequenceNumberKey, r.Kinesis.SequenceNumber)
	if err := h.handleMessage(ctx, r); err != nil {
		return fmt.Errorf("failed to handle record %v: %w", r.Kinesis.SequenceNumber, err)
	}
	return nil
}

func (h *Handler) consumerOptions() []consumer.Option {
	if !KinesisOpts.Replay {
		return []consumer.Option{consumer.WithShardIteratorType("LATEST")}
	}
	if ts := KinesisOpts.ReplayFrom.Value(); ts != nil && !ts.IsZero() {
		return []consumer.Option{
			consumer.WithShardIteratorType("AT_TIMESTAMP"),
			consumer.WithTimestamp(*ts),
		}
	}
	return []consumer.Option{consumer.WithShardIteratorType("TRIM_HORIZON")}
}

func (h *Handler) handleRealtime(ctx context.Context) error {
	streamName := KinesisOpts.StreamName
	if streamName == "" {
		streamName = publish.StreamName(hmscli.CommonOpts.Env)
	}
	c, err := consumer.New(streamName, h.consumerOptions()...)
	if err != nil {
		return err
	}

	ctx = h.Logger.WithContext(ctx)
	callback := func(record *consumer.Record) error {
		er := events.KinesisEventRecord{
			Kinesis: events.KinesisRecord{
				Data:           record.Data,
				SequenceNumber: aws.StringValue(record.SequenceNumber),
			},
		}
		return h.handleSingleEvent(ctx, er)
	}
	h.Logger.Info().Str("stream", streamName).Msg("listening")
	return c.Scan(ctx, callback)
}

