package hmskinesis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Archive returns a callback that appends every mirrored chat message to
// store. Presence events are ignored. Messages that cannot be persisted
// are logged and skipped so one bad record does not stall the shard.
func Archive(store hmschat.Store) HandleMessageCallback {
	return func(ctx context.Context, record events.KinesisEventRecord) error {
		logger := zerolog.Ctx(ctx)

		var envelope publish.Envelope
		if err := json.Unmarshal(record.Kinesis.Data, &envelope); err != nil {
			return fmt.Errorf("failed to unmarshal kinesis record: %w", err)
		}
		if envelope.Topic != publish.TopicMessage {
			return nil
		}

		message, err := hmschat.DecodeMessage(envelope.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("sequence", record.Kinesis.SequenceNumber).Msg("skipping undecodable message")
			return nil
		}
		if message.Timestamp.IsZero() && record.Kinesis.ApproximateArrivalTimestamp.Unix() > 0 {
			message.Timestamp = record.Kinesis.ApproximateArrivalTimestamp.UTC()
		}
		message = hmschat.Prepare(message, time.Now())
		if err := message.Validate(); err != nil {
			logger.Warn().Err(err).Str("sequence", record.Kinesis.SequenceNumber).Msg("skipping incomplete message")
			return nil
		}
		return store.Append(ctx, message)
	}
}
