// Package utils provides helpers for device token creation and validation.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const deviceTokenType = "device"

var ErrInvalidDeviceToken = errors.New("invalid device token")

// DeviceToken is a signed JWT binding a client to its device identifier so a
// reconnecting client can resume its order without resending the raw id.
type DeviceToken struct {
	Token string
	Exp   time.Time
}

// DeviceClaims are the claims carried by a device token.  Subject holds the
// device identifier.
type DeviceClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// NewDeviceToken builds and signs an HS256 token for deviceID.
func NewDeviceToken(secret, deviceID string, ttl time.Duration) (DeviceToken, error) {
	if secret == "" {
		return DeviceToken{}, errors.New("device token secret not configured")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := DeviceClaims{
		Type: deviceTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return DeviceToken{}, fmt.Errorf("sign device token: %w", err)
	}
	return DeviceToken{Token: signed, Exp: exp}, nil
}

// ParseDeviceToken validates raw and returns the device identifier it was
// issued for.
func ParseDeviceToken(secret, raw string) (string, error) {
	var claims DeviceClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidDeviceToken, err)
	}
	if claims.Type != deviceTokenType || claims.Subject == "" {
		return "", ErrInvalidDeviceToken
	}
	return claims.Subject, nil
}
