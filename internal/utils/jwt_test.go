package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceTokenRoundTrip(t *testing.T) {
	tok, err := NewDeviceToken("s3cret", "dev-42", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	id, err := ParseDeviceToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "dev-42", id)
}

func TestParseDeviceTokenRejects(t *testing.T) {
	good, err := NewDeviceToken("s3cret", "dev-42", time.Hour)
	require.NoError(t, err)
	expired, err := NewDeviceToken("s3cret", "dev-42", -time.Minute)
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, DeviceClaims{
		Type: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "dev-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"garbage":      {"s3cret", "not-a-jwt"},
		"wrong type":   {"s3cret", wrongType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDeviceToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidDeviceToken)
		})
	}
}

func TestNewDeviceTokenNeedsSecret(t *testing.T) {
	_, err := NewDeviceToken("", "dev", time.Hour)
	assert.Error(t, err)
}
