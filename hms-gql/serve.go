package hmsgql

import (
	"fmt"
	"net/http"

	"github.com/ahmadijaz02/hms-go-chat/graphiql"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// GraphQLRelay parses the resolver's schema into an http handler.
func GraphQLRelay(resolver Resolver) (*relay.Handler, error) {
	opts := []graphql.SchemaOpt{
		graphql.MaxDepth(8),
		graphql.UseFieldResolvers(),
	}
	if !AllowIntrospection() {
		opts = append(opts, graphql.DisableIntrospection())
	}

	schema, err := graphql.ParseSchema(resolver.Schema(), resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse schema: %w", err)
	}
	return &relay.Handler{Schema: schema}, nil
}

// Mount registers POST /graphql behind middlewares, and the playground
// on GET when introspection is allowed. endpoint is the path the browser
// posts queries to.
func Mount(router chi.Router, resolver Resolver, endpoint string, middlewares ...func(http.Handler) http.Handler) error {
	handler, err := GraphQLRelay(resolver)
	if err != nil {
		return err
	}

	router.With(middlewares...).Post("/graphql", middleware.NoCache(handler).ServeHTTP)
	if AllowIntrospection() {
		router.Get("/graphql", graphiql.New(endpoint))
	}
	return nil
}
