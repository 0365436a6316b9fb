package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode is an exported constant or variable used by the client core.
var ErrDecode = errors.New("token claims undecodable")

// SessionClaims defines a public type used by goClient APIs.
//
// SessionClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionClaims struct {
	UID int64 `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Decode extracts the claims embedded in a session token without verifying
// its signature. It returns [ErrDecode] when the token is not a well-formed
// JWT or its claims cannot be parsed.
func Decode(tokenStr string) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, ErrDecode
	}

	claims := &SessionClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrDecode
	}

	return claims, nil
}

// UserID returns the subject identity carried by the claims. The uid claim
// takes precedence; a numeric registered subject is the fallback. Returns 0
// when no identity is present.
func (c *SessionClaims) UserID() int64 {
	if c == nil {
		return 0
	}
	if c.UID != 0 {
		return c.UID
	}
	if c.Subject == "" {
		return 0
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Expired reports whether the claims' expiry has passed at the given time.
// leeway moves the effective expiry earlier, so a token about to expire is
// refreshed before a request can fail with it. Fail closed: claims without a
// decodable expiry are treated as expired.
func (c *SessionClaims) Expired(now time.Time, leeway time.Duration) bool {
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	if leeway < 0 {
		leeway = 0
	}
	return !now.Before(c.ExpiresAt.Time.Add(-leeway))
}
