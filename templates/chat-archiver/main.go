package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ahmadijaz02/hms-go-chat/hms-chat/backend"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmsddb "github.com/ahmadijaz02/hms-go-chat/hms-ddb"
	hmskinesis "github.com/ahmadijaz02/hms-go-chat/hms-kinesis"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var service = hmscli.NewService("chat-archiver")

func main() {
	flags := append(hmscli.CommonFlags, hmskinesis.KinesisFlags...)
	flags = append(flags, backend.Flags...)
	flags = append(flags, hmsddb.DDBFlags...)

	app := hmscli.App(service, action, flags...)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := hmscli.Logger(service)
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newSession := sync.OnceValue(func() *session.Session {
		return session.Must(session.NewSession(aws.NewConfig().WithRegion(hmsddb.DDBOpts.Region)))
	})
	store, release, err := backend.Open(ctx, hmscli.CommonOpts.Env, newSession)
	if err != nil {
		return err
	}
	defer release()

	handler := hmskinesis.NewHandler(service, hmskinesis.Archive(store))
	return handler.Start(ctx)
}
