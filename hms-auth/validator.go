// Package hmsauth validates the bearer tokens presented by chat clients.
package hmsauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSecret = errors.New("jwt secret is not configured")

// Validator reports whether a bearer token is acceptable. Implementations
// must be safe for concurrent use.
type Validator interface {
	Validate(token string) bool
}

type ValidatorFunc func(token string) bool

func (fn ValidatorFunc) Validate(token string) bool { return fn(token) }

// Claims carried by tokens issued by the user service.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator accepts HMAC signed tokens.
type JWTValidator struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTValidator(secret []byte, issuer string, leeway time.Duration) (*JWTValidator, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	return &JWTValidator{
		secret: secret,
		parser: jwt.NewParser(options...),
	}, nil
}

func (v *JWTValidator) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func (v *JWTValidator) Validate(token string) bool {
	if token == "" {
		return false
	}
	_, err := v.Parse(token)
	return err == nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
