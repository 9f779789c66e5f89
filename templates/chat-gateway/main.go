package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	hmsauth "github.com/ahmadijaz02/hms-go-chat/hms-auth"
	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/backend"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmsddb "github.com/ahmadijaz02/hms-go-chat/hms-ddb"
	hmsgql "github.com/ahmadijaz02/hms-go-chat/hms-gql"
	hmsrest "github.com/ahmadijaz02/hms-go-chat/hms-rest"
	hmsws "github.com/ahmadijaz02/hms-go-chat/hms-ws"
	"github.com/ahmadijaz02/hms-go-chat/hms-ws/publish"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var opts struct {
	Metrics bool
}

var service = hmscli.NewService("chat-gateway")

func main() {
	flags := append(hmscli.CommonFlags,
		hmscli.PortFlag(5002),
		hmscli.BoolFlag("metrics", "publish cloudwatch metrics", &opts.Metrics),
	)
	flags = append(flags, hmsauth.Flags...)
	flags = append(flags, hmsws.Flags...)
	flags = append(flags, backend.Flags...)
	flags = append(flags, hmsddb.DDBFlags...)
	flags = append(flags, publish.Flags...)

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

	validator, err := hmsauth.Build(newSession)
	if err != nil {
		return err
	}

	store, releaseStore, err := backend.Open(ctx, hmscli.CommonOpts.Env, newSession)
	if err != nil {
		return err
	}
	defer releaseStore()

	publisher, releasePublisher, err := publish.Build(hmscli.CommonOpts.Env, service.Name, newSession)
	if err != nil {
		return err
	}
	defer releasePublisher()

	var relayStore hmschat.Store = store
	if hmscli.CommonOpts.Dry {
		logger.Info().Msg("dry run: messages are neither persisted nor published")
		relayStore, publisher = nil, nil
	}

	var metrics hmsws.Metrics
	if opts.Metrics {
		metrics = hmscli.NewMetrics(service, cloudwatch.New(newSession()))
	}

	controller := hmsws.NewController(hmsws.Options{
		Validator:   validator,
		Store:       relayStore,
		Publisher:   publisher,
		Metrics:     metrics,
		Logger:      logger,
		EvictStale:  hmsws.WSOpts.EvictStale,
		Concurrency: hmsws.WSOpts.Concurrency,
		TaskTimeout: hmsws.WSOpts.TaskTimeout,
		TaskLimit:   hmsws.WSOpts.TaskLimit,
	})

	routes := hmsrest.Middlewares(service, chi.NewRouter())
	routes.Get("/health", hmsrest.HealthHandler)
	routes.Get("/messages", hmsrest.MessagesHandler(store, validator, backend.StoreOpts.HistoryLimit))
	routes.Get("/messages/search", hmsrest.SearchHandler(store, validator))
	routes.Get("/statistics", hmsrest.StatisticsHandler(store, validator))
	routes.Get("/online", hmsrest.OnlineUsersHandler(controller.Registry, validator))
	routes.Handle(hmsws.WSOpts.Path, hmsws.NewHandler(controller, logger))

	resolver := hmsgql.NewResolver(store, controller.Registry, backend.StoreOpts.HistoryLimit)
	if err := hmsgql.Mount(routes, resolver, "/graphql", hmsrest.RequireToken(validator)); err != nil {
		return err
	}

	return hmsrest.Serve(ctx, service, routes, controller.Shutdown)
}
