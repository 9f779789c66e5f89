package main

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/ahmadijaz02/hms-go-chat/hms-chat/backend"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmsddb "github.com/ahmadijaz02/hms-go-chat/hms-ddb"
	hmsreport "github.com/ahmadijaz02/hms-go-chat/hms-report"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"
)

var service = hmscli.NewService("chat-transcript")

func main() {
	flags := append(hmscli.CommonFlags, hmsreport.ReportFlags...)
	flags = append(flags, backend.Flags...)
	flags = append(flags, hmsddb.DDBFlags...)

	app := hmscli.App(service, action, flags...)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := hmscli.Logger(service)
	ctx := logger.WithContext(context.Background())

	newSession := sync.OnceValue(func() *session.Session {
		return session.Must(session.NewSession(aws.NewConfig().WithRegion(hmsddb.DDBOpts.Region)))
	})
	store, release, err := backend.Open(ctx, hmscli.CommonOpts.Env, newSession)
	if err != nil {
		return err
	}
	defer release()

	generate := hmsreport.TranscriptGenerator(store, hmsreport.ReportOpts.Limit)
	handler := hmsreport.NewHandler(service, s3.New(newSession()), "transcript", generate)
	return handler.Start(ctx)
}
