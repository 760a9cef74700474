package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a JWT bearer token without its key.
// None of it is trusted; it only feeds the status command.
type TokenInfo struct {
	Algorithm string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that is before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the token claims without verifying the signature. Tokens
// that are not JWTs return an error; the server may issue opaque tokens.
func Inspect(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	info := TokenInfo{Algorithm: parsed.Method.Alg()}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if sub, ok := claims["id"].(string); ok && info.Subject == "" {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}
