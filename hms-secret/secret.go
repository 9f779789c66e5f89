// Package hmssecret loads configuration secrets from AWS Secrets Manager
// into Go structs.
package hmssecret

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/savaki/secrets"
)

// Decoder is satisfied by *secrets.Manager.
type Decoder interface {
	Decode(secretName string, v interface{}) error
}

func LoadSecret(s *session.Session, secretName string, data interface{}) error {
	api := secrets.WithSecretsManager(secretsmanager.New(s))
	manager, err := secrets.NewManager(api)
	if err != nil {
		return fmt.Errorf("failed to initialize secrets: %w", err)
	}
	return Decode(manager, secretName, data)
}

func Decode(decoder Decoder, secretName string, data interface{}) error {
	if err := decoder.Decode(secretName, data); err != nil {
		return fmt.Errorf("failed to load secret %v: %w", secretName, err)
	}
	return nil
}
