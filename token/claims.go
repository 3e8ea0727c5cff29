package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
)

// Claims is the identity carried by an access token
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is at or before now
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseUnverified reads the claims of an access token without checking its
// signature. The client holds no signing key; the server stays the authority.
func ParseUnverified(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, marketerrors.ErrInvalidToken
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(marketerrors.ErrInvalidToken, err.Error())
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(marketerrors.ErrInvalidToken, "error extracting claims")
	}
	return claimsFromMap(mapClaims)
}

// FromMapClaims converts verified JWT claims into Claims
func FromMapClaims(mapClaims jwt.MapClaims) (*Claims, error) {
	return claimsFromMap(mapClaims)
}

func claimsFromMap(mapClaims jwt.MapClaims) (*Claims, error) {
	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.Wrap(marketerrors.ErrInvalidToken, "missing subject")
	}

	claims := &Claims{UserID: sub}
	claims.Email, _ = mapClaims["email"].(string)

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, errors.Wrap(marketerrors.ErrInvalidToken, "malformed expiry")
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
