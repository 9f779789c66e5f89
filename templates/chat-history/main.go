package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	hmsauth "github.com/ahmadijaz02/hms-go-chat/hms-auth"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/backend"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmsddb "github.com/ahmadijaz02/hms-go-chat/hms-ddb"
	hmsgql "github.com/ahmadijaz02/hms-go-chat/hms-gql"
	hmsrest "github.com/ahmadijaz02/hms-go-chat/hms-rest"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var service = hmscli.NewSubpathService("chat-history")

func main() {
	flags := append(hmscli.CommonFlags, hmscli.PortFlag(5003))
	flags = append(flags, hmsauth.Flags...)
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

	validator, err := hmsauth.Build(newSession)
	if err != nil {
		return err
	}
	store, release, err := backend.Open(ctx, hmscli.CommonOpts.Env, newSession)
	if err != nil {
		return err
	}
	defer release()

	routes := hmsrest.Middlewares(service, chi.NewRouter())
	routes.Get("/health", hmsrest.HealthHandler)
	routes.Get("/messages", hmsrest.CacheControl(hmsrest.MessagesHandler(store, validator, backend.StoreOpts.HistoryLimit), 0))
	routes.Get("/messages/search", hmsrest.CacheControl(hmsrest.SearchHandler(store, validator), 0))
	routes.Get("/statistics", hmsrest.CacheControl(hmsrest.StatisticsHandler(store, validator), 0))

	resolver := hmsgql.NewResolver(store, nil, backend.StoreOpts.HistoryLimit)
	if err := hmsgql.Mount(routes, resolver, fmt.Sprintf("/%v/graphql", service.Subpath), hmsrest.RequireToken(validator)); err != nil {
		return err
	}
	return hmsrest.Webserver(service, routes)
}
