package publish

import (
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var PublishOpts struct {
	Kinesis       bool
	KinesisStream string
	NATSURL       string
	NATSPrefix    string
}

var Flags = []cli.Flag{
	hmscli.BoolFlag("publish-kinesis", "mirror chat events to kinesis", &PublishOpts.Kinesis),
	hmscli.StringFlag("kinesis-stream", "override the kinesis stream name", &PublishOpts.KinesisStream),
	hmscli.StringFlag("nats-url", "mirror chat events to this nats server", &PublishOpts.NATSURL),
	hmscli.StringFlag("nats-prefix", "subject prefix for mirrored events", &PublishOpts.NATSPrefix, "hms"),
}

// Build returns the publishers enabled by PublishOpts, or nil when none
// are, and a function releasing their connections.
func Build(env, name string, newSession func() *session.Session) (Publisher, func(), error) {
	var (
		publishers Multi
		release    = func() {}
	)
	if PublishOpts.Kinesis {
		p := BuildKinesis(newSession(), env)
		if PublishOpts.KinesisStream != "" {
			p.streamName = PublishOpts.KinesisStream
		}
		publishers = append(publishers, p)
	}
	if PublishOpts.NATSURL != "" {
		conn, err := ConnectNATS(PublishOpts.NATSURL, name)
		if err != nil {
			return nil, nil, err
		}
		release = func() { _ = conn.Drain() }
		publishers = append(publishers, NewNATS(conn, PublishOpts.NATSPrefix))
	}
	if len(publishers) == 0 {
		return nil, release, nil
	}
	return publishers, release, nil
}
