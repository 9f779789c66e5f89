// Package hmsrest provides the HTTP surface shared by the chat services:
// middleware, the history endpoints and the server loop.
package hmsrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

// ShutdownTimeout bounds graceful shutdown.
var ShutdownTimeout = 15 * time.Second

func Middlewares(service hmscli.Service, routes chi.Router) chi.Router {
	return MiddlewaresWithLogger(hmscli.Logger(service), routes)
}

func MiddlewaresWithLogger(logger zerolog.Logger, routes chi.Router) chi.Router {
	routes.Use(
		middleware.RequestID,
		withSecurityHeaders,
		withCORS(),
		withLogger(logger),
		middleware.Recoverer,
	)
	return routes
}

// Webserver serves routes locally in console mode and behind API Gateway
// otherwise. Subpath services are mounted under /{subpath} locally, the
// way API Gateway routes to them.
func Webserver(service hmscli.Service, routes chi.Router) error {
	if hmscli.CommonOpts.Console {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var handler http.Handler = routes
		if service.Subpath != "" {
			mounted := chi.NewRouter()
			mounted.Mount("/"+service.Subpath, routes)
			handler = mounted
		}
		return Serve(ctx, service, handler, nil)
	}

	lambda.Start(apigateway.Wrap(routes, hmscli.CommonOpts.Env, service.Subpath))
	return nil
}

// Serve listens on CommonOpts.Port until ctx is done, then stops accepting
// requests and runs onShutdown. Hijacked connections are not tracked by
// the http server, so onShutdown is where they get closed.
func Serve(ctx context.Context, service hmscli.Service, routes http.Handler, onShutdown func(context.Context) error) error {
	logger := hmscli.Logger(service)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", hmscli.CommonOpts.Port),
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info().Int("port", hmscli.CommonOpts.Port).Msg("starting http server")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	if onShutdown != nil {
		if err := onShutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	logger.Info().Msg("stopped")
	return nil
}

func CacheControl(handler http.HandlerFunc, maxAge int) http.HandlerFunc {
	value := fmt.Sprintf("max-age=%v", maxAge)
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", value)
		handler.ServeHTTP(w, req)
	}
}

func withSecurityHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		header := w.Header()
		header.Add("cross-origin-opener-policy", "same-origin")
		header.Add("cross-origin-resource-policy", "cross-origin")
		header.Add("x-content-type-options", "nosniff")
		handler.ServeHTTP(w, req)
	})
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := logger.With().Str("request_id", middleware.GetReqID(req.Context())).Logger()
			req = req.WithContext(l.WithContext(req.Context()))
			handler.ServeHTTP(w, req)
		})
	}
}
