package credentials

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const tokenTypeBearer = "Bearer"

// Credentials is the token pair returned by login and refresh
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Token returns the access token as an oauth2 bearer token
func (c Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    tokenTypeBearer,
	}
}

// Load reads both tokens. Absent tokens come back as empty strings.
func Load(ctx context.Context, store Store) (Credentials, error) {
	access, _, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "[Load] access token")
	}
	refresh, _, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "[Load] refresh token")
	}
	return Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// Save persists the access token and, when non-empty, the refresh token.
// An empty refresh token keeps the stored one, which covers servers that do not rotate.
func Save(ctx context.Context, store Store, creds Credentials) error {
	if creds.AccessToken == "" {
		return errors.New("[Save] access token is required")
	}
	if err := store.Set(ctx, KeyAccessToken, creds.AccessToken); err != nil {
		return errors.Wrap(err, "[Save] access token")
	}
	if creds.RefreshToken == "" {
		return nil
	}
	if err := store.Set(ctx, KeyRefreshToken, creds.RefreshToken); err != nil {
		return errors.Wrap(err, "[Save] refresh token")
	}
	return nil
}

// Clear erases both tokens
func Clear(ctx context.Context, store Store) error {
	return store.RemoveMany(ctx, KeyAccessToken, KeyRefreshToken)
}
