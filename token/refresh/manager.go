package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/internal/config"
	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.TokenConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] refresh token repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewManager] token config is required")
	}
	return &Manager{
		repo:   repo,
		config: cfg,
	}, nil
}

// Create generates a new refresh token and stores it. A user holds a single
// refresh token, so any previous one is revoked.
func (m *Manager) Create(userID string) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", errors.Wrap(err, "failed to delete existing refresh token")
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "failed to store refresh token")
	}
	return tokenStr, nil
}

// Rotate exchanges a valid refresh token for a new one and returns the new
// token with the user it belongs to. The old token is unusable afterwards.
func (m *Manager) Rotate(token string) (newToken, userID string, err error) {
	rt, err := m.Get(token)
	if err != nil {
		return "", "", err
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return "", "", marketerrors.ErrRefreshTokenExpired
	}

	newToken, err = m.Create(rt.UserID)
	if err != nil {
		return "", "", err
	}
	return newToken, rt.UserID, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil || rt == nil {
		return nil, marketerrors.ErrInvalidRefreshToken
	}
	return rt, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
