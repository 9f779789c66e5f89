// Package graphiql serves the GraphiQL playground.
package graphiql

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
)

//go:embed graphiql.html
var page string

var templ = template.Must(template.New("graphiql").Parse(page))

// New serves a playground that posts queries to endpoint.
func New(endpoint string) http.HandlerFunc {
	var buffer bytes.Buffer
	err := templ.Execute(&buffer, struct{ Endpoint string }{Endpoint: endpoint})

	return func(w http.ResponseWriter, req *http.Request) {
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("unable to render graphiql")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buffer.Bytes())
	}
}
