package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/internal/config"
	"github.com/jrsteele09/go-market-client/token"
	"github.com/jrsteele09/go-market-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator issues access tokens for the development backend
type Creator struct {
	config config.TokenConfig
	signer token.Signer
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.TokenConfig, signer token.Signer) (*Creator, error) {
	if cfg == nil {
		return nil, errors.New("[NewCreator] token config is required")
	}
	if signer == nil {
		return nil, errors.New("[NewCreator] signer is required")
	}
	return &Creator{
		config: cfg,
		signer: signer,
	}, nil
}

// CreateAccessToken signs a short lived token identifying the user
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	if user == nil {
		return "", errors.New("[CreateAccessToken] user is required")
	}

	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(c.config.GetAccessTokenExpiry()).Unix(),
		"jti":   uuid.New().String(), // distinct tokens for the same second
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign JWT token")
	}
	return signed, nil
}
