package publish

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
)

// KinesisPublisher writes events to a Kinesis stream.
type KinesisPublisher struct {
	client     kinesisiface.KinesisAPI
	streamName string
}

func NewKinesis(client kinesisiface.KinesisAPI, streamName string) *KinesisPublisher {
	return &KinesisPublisher{
		client:     client,
		streamName: streamName,
	}
}

// BuildKinesis creates a publisher using the standard stream name for the
// given environment.
func BuildKinesis(s *session.Session, env string) *KinesisPublisher {
	return NewKinesis(kinesis.New(s), StreamName(env))
}

// StreamName returns the Kinesis stream name for the given environment.
func StreamName(env string) string {
	return env + "-hms-chat-events"
}

// Send publishes an event. The topic is the partition key so ordering is
// kept within a topic.
func (p *KinesisPublisher) Send(ctx context.Context, topic string, payload interface{}) error {
	data, err := marshalEnvelope(topic, payload)
	if err != nil {
		return err
	}

	_, err = p.client.PutRecordWithContext(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(p.streamName),
		PartitionKey: aws.String(topic),
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("publishing to kinesis stream %v: %w", p.streamName, err)
	}
	return nil
}
