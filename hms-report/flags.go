package hmsreport

import (
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/urfave/cli/v2"
)

var ReportOpts struct {
	Bucket    string
	OutFile   string
	GetLatest bool
	Limit     int
}

var ReportFlags = []cli.Flag{
	hmscli.StringFlag("bucket", "The bucket to write transcripts to", &ReportOpts.Bucket),
	hmscli.StringFlag("out-file", "The file to write the transcript to, when running in dry mode", &ReportOpts.OutFile),
	hmscli.BoolFlag("get-latest", "Print the latest stored transcript instead of generating a new one", &ReportOpts.GetLatest),
	hmscli.IntFlag("transcript-limit", "Messages included in each transcript", &ReportOpts.Limit, 1000),
}
