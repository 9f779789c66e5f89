package hmsauth

import (
	"fmt"
	"time"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmssecret "github.com/ahmadijaz02/hms-go-chat/hms-secret"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var AuthOpts struct {
	JWTSecret     string
	JWTSecretName string
	JWTIssuer     string
	JWTLeeway     time.Duration
}

var Flags = []cli.Flag{
	hmscli.StringFlag("jwt-secret", "HMAC secret used to verify client tokens", &AuthOpts.JWTSecret),
	hmscli.StringFlag("jwt-secret-name", "Secrets Manager entry holding {\"jwt_secret\": ...}", &AuthOpts.JWTSecretName),
	hmscli.StringFlag("jwt-issuer", "required token issuer, if any", &AuthOpts.JWTIssuer),
	hmscli.DurationFlag("jwt-leeway", "clock skew tolerated when checking token expiry", &AuthOpts.JWTLeeway, 30*time.Second),
}

// Build returns the validator described by AuthOpts. A Secrets Manager
// entry takes precedence over an inline secret.
func Build(newSession func() *session.Session) (*JWTValidator, error) {
	secret := AuthOpts.JWTSecret
	if AuthOpts.JWTSecretName != "" {
		var data struct {
			JWTSecret string `json:"jwt_secret"`
		}
		if err := hmssecret.LoadSecret(newSession(), AuthOpts.JWTSecretName, &data); err != nil {
			return nil, err
		}
		secret = data.JWTSecret
	}
	v, err := NewJWTValidator([]byte(secret), AuthOpts.JWTIssuer, AuthOpts.JWTLeeway)
	if err != nil {
		return nil, fmt.Errorf("unable to build token validator: %w", err)
	}
	return v, nil
}
