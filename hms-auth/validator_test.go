package hmsauth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tj/assert"
)

func sign(t *testing.T, method jwt.SigningMethod, secret []byte, claims Claims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	assert.NoError(t, err)
	return token
}

func TestJWTValidator(t *testing.T) {
	secret := []byte("secret")
	v, err := NewJWTValidator(secret, "", 0)
	assert.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, secret, Claims{
			ID:   "u1",
			Role: "doctor",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		assert.True(t, v.Validate(token))

		claims, err := v.Parse(token)
		assert.NoError(t, err)
		assert.Equal(t, "u1", claims.ID)
		assert.Equal(t, "doctor", claims.Role)
	})

	t.Run("expired", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, secret, Claims{
			ID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		assert.False(t, v.Validate(token))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{ID: "u1"})
		assert.False(t, v.Validate(token))
	})

	t.Run("garbage", func(t *testing.T) {
		assert.False(t, v.Validate("bad"))
		assert.False(t, v.Validate(""))
	})

	t.Run("issuer", func(t *testing.T) {
		strict, err := NewJWTValidator(secret, "user-service", 0)
		assert.NoError(t, err)

		ok := sign(t, jwt.SigningMethodHS512, secret, Claims{ID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "user-service"}})
		assert.True(t, strict.Validate(ok))

		other := sign(t, jwt.SigningMethodHS256, secret, Claims{ID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere"}})
		assert.False(t, strict.Validate(other))
	})

	t.Run("no secret", func(t *testing.T) {
		_, err := NewJWTValidator(nil, "", 0)
		assert.True(t, errors.Is(err, ErrNoSecret))
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}
