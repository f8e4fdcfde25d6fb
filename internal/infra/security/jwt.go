package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector screens bearer tokens before they are forwarded to the
// store backend. The backend remains the authority; this only avoids calls
// that are certain to be rejected.
type TokenInspector struct {
	secret []byte
	now    func() time.Time
}

// NewTokenInspector verifies HS256 signatures when secret is non-empty.
// Without a secret only the token structure and expiry are checked.
func NewTokenInspector(secret string) *TokenInspector {
	return &TokenInspector{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Usable reports whether token parses as a JWT and has not expired. The
// signature is checked only when a secret is configured.
func (i *TokenInspector) Usable(token string) bool {
	claims := &jwt.RegisteredClaims{}

	if len(i.secret) > 0 {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
		return err == nil && parsed.Valid
	}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.After(i.now())
}
