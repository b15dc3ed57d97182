package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Admin = "Admin"

	AdminScope = "admin"
)

var JWT = struct {
	ADMIN_COOKIE_NAME string
	ISSUER            string
}{
	ADMIN_COOKIE_NAME: "admin_token",
	ISSUER:            "pixelbeads",
}

type AdminClaims struct {
	Kind  string `json:"kind"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// NewAdminToken signs an HS256 admin token for subject valid for ttl.
func NewAdminToken(subject, secret string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is not configured")
	}

	now := time.Now()
	expiry := now.Add(ttl)
	claims := AdminClaims{
		Kind:  Admin,
		Scope: AdminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    JWT.ISSUER,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing admin token %v", err)
	}
	return signed, expiry, nil
}

func ValidateAdminToken(tokenString string, secret string) (*AdminClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(JWT.ISSUER))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.Kind != Admin || claims.Scope != AdminScope {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
