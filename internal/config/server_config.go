package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	keyPort               = "port"
	keySeedEmail          = "seed_email"
	keySeedPassword       = "seed_password"
	keySeedProducts       = "seed_products"
	keyPublicURL          = "public_url"
	keySigningSecret      = "signing_secret"
	keyAccessTokenExpiry  = "access_token_expiry"
	keyRefreshTokenExpiry = "refresh_token_expiry"
	keyRefreshTokenLength = "refresh_token_length"
)

// ServerConfig configures the development backend
type ServerConfig interface {
	GetPort() string
	// GetPublicURL is the scheme and host image URLs are built from
	GetPublicURL() string
	GetSeedEmail() string
	// GetSeedPassword is empty when a password should be generated
	GetSeedPassword() string
	GetSeedProducts() bool
}

// TokenConfig configures token issuance on the development backend
type TokenConfig interface {
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Server struct {
	v *viper.Viper
}

var _ ServerConfig = Server{}

func (s Server) GetPort() string {
	return normalisePort(s.v.GetString(keyPort))
}

func (s Server) GetPublicURL() string {
	if u := strings.TrimRight(s.v.GetString(keyPublicURL), "/"); u != "" {
		return u
	}
	return "http://localhost" + s.GetPort()
}

func (s Server) GetSeedEmail() string {
	return strings.TrimSpace(s.v.GetString(keySeedEmail))
}

func (s Server) GetSeedPassword() string {
	return s.v.GetString(keySeedPassword)
}

func (s Server) GetSeedProducts() bool {
	return s.v.GetBool(keySeedProducts)
}

type Tokens struct {
	v *viper.Viper
}

var _ TokenConfig = Tokens{}

func (t Tokens) GetSigningSecret() string {
	return t.v.GetString(keySigningSecret)
}

func (t Tokens) GetAccessTokenExpiry() time.Duration {
	return t.v.GetDuration(keyAccessTokenExpiry)
}

func (t Tokens) GetRefreshTokenExpiry() time.Duration {
	return t.v.GetDuration(keyRefreshTokenExpiry)
}

func (t Tokens) GetRefreshTokenLength() int {
	return t.v.GetInt(keyRefreshTokenLength) // bytes, hex encoded on the wire
}
