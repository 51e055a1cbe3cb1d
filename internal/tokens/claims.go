package tokens

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims seer displays. The signature is
// not verified: the backend is the only authority on validity.
type Claims struct {
	Subject   string
	UserID    string
	ExpiresAt time.Time
}

type accessClaims struct {
	UserID any `json:"user_id"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of an access token without verifying it.
func Inspect(access string) (Claims, bool) {
	access = strings.TrimSpace(access)
	if access == "" {
		return Claims{}, false
	}
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return Claims{}, false
	}
	out := Claims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	switch v := claims.UserID.(type) {
	case string:
		out.UserID = v
	case float64:
		out.UserID = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out, true
}

// ExpiresAt returns the access token's expiry when it carries one.
func ExpiresAt(access string) (time.Time, bool) {
	c, ok := Inspect(access)
	if !ok || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}

// Redact masks a token for logs, keeping a short prefix for correlation.
func Redact(token string) string {
	if len(token) <= 8 {
		return "[REDACTED]"
	}
	return token[:4] + "…[REDACTED]"
}
