package hmskinesis

import (
	"time"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/urfave/cli/v2"
)

var KinesisOpts struct {
	StreamName string
	Replay     bool
	ReplayFrom cli.Timestamp
}

var StreamNameFlag = hmscli.StringFlag("stream-name", "The stream name to read chat events from", &KinesisOpts.StreamName)
var ReplayFlag = hmscli.BoolFlag("replay", "Whether to replay from the beginning, or start from the next event", &KinesisOpts.Replay)

var ReplayFromFlag = cli.TimestampFlag{
	Name:        "replay-from",
	Usage:       "Timestamp to replay from",
	Layout:      time.DateTime,
	EnvVars:     []string{"REPLAY_FROM"},
	Destination: &KinesisOpts.ReplayFrom,
}

var KinesisFlags = []cli.Flag{
	StreamNameFlag,
	ReplayFlag,
	&ReplayFromFlag,
}
