package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/tj/assert"
)

type mockKinesis struct {
	kinesisiface.KinesisAPI
	input *kinesis.PutRecordInput
	err   error
}

func (m *mockKinesis) PutRecordWithContext(_ aws.Context, input *kinesis.PutRecordInput, _ ...request.Option) (*kinesis.PutRecordOutput, error) {
	m.input = input
	return &kinesis.PutRecordOutput{}, m.err
}

type funcPublisher func(topic string) error

func (fn funcPublisher) Send(_ context.Context, topic string, _ interface{}) error { return fn(topic) }

func TestKinesisPublisher(t *testing.T) {
	t.Run("raw payload kept", func(t *testing.T) {
		api := &mockKinesis{}
		p := NewKinesis(api, StreamName("local"))

		err := p.Send(context.Background(), TopicMessage, json.RawMessage(`{"content":"hi"}`))
		assert.NoError(t, err)
		assert.Equal(t, "local-hms-chat-events", aws.StringValue(api.input.StreamName))
		assert.Equal(t, TopicMessage, aws.StringValue(api.input.PartitionKey))

		var envelope Envelope
		assert.NoError(t, json.Unmarshal(api.input.Data, &envelope))
		assert.Equal(t, TopicMessage, envelope.Topic)
		assert.JSONEq(t, `{"content":"hi"}`, string(envelope.Payload))
	})

	t.Run("struct payload", func(t *testing.T) {
		api := &mockKinesis{}
		err := NewKinesis(api, "s").Send(context.Background(), TopicPresence, []string{"u1"})
		assert.NoError(t, err)
		assert.JSONEq(t, `{"topic":"chat.presence","payload":["u1"]}`, string(api.input.Data))
	})

	t.Run("error", func(t *testing.T) {
		api := &mockKinesis{err: errors.New("boom")}
		err := NewKinesis(api, "s").Send(context.Background(), TopicMessage, "x")
		assert.Error(t, err)
	})
}

func TestMulti(t *testing.T) {
	var topics []string
	ok := funcPublisher(func(topic string) error {
		topics = append(topics, topic)
		return nil
	})
	failing := funcPublisher(func(string) error { return errors.New("down") })

	err := Multi{ok, failing, ok}.Send(context.Background(), TopicMessage, nil)
	assert.Error(t, err)
	assert.Equal(t, []string{TopicMessage, TopicMessage}, topics)
}

func TestNATSSubject(t *testing.T) {
	assert.Equal(t, "hms.chat.message", NewNATS(nil, "hms").Subject(TopicMessage))
	assert.Equal(t, "chat.message", NewNATS(nil, "").Subject(TopicMessage))
}
