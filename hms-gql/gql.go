// Package hmsgql serves the read side of the chat (history and roster)
// over GraphQL, next to the REST endpoints.
package hmsgql

import (
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
)

// AllowIntrospection is false in production unless running locally.
func AllowIntrospection() bool {
	return hmscli.CommonOpts.Env != "prod" || hmscli.CommonOpts.Console
}

type Resolver interface {
	Schema() string
}
