package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTVerifier_ShortSecret(t *testing.T) {
	_, err := NewJWTVerifier("short", "devconnect")
	assert.Error(t, err)
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, "devconnect")
	require.NoError(t, err)

	token, err := v.Issue("64b7f0c2a1b2c3d4e5f60718", time.Hour)
	require.NoError(t, err)

	sub, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", sub)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, "devconnect")
	require.NoError(t, err)
	other, err := NewJWTVerifier(testSecret, "someone-else")
	require.NoError(t, err)

	expired, err := v.Issue("abc", -time.Minute)
	require.NoError(t, err)
	wrongIssuer, err := other.Issue("abc", time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "abc",
		Issuer:    "devconnect",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	noSubject, err := v.Issue("", time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"alg none":     noneAlg,
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
