package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	ServerConfig
	TokenConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetTracingEnabled() bool
	GetGeocodeAPIKey() string
	GetGeocodeURL() string
}

type StorageConfig interface {
	GetCredentialsBackend() string
	GetCredentialsFile() string
	GetCredentialsPassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
	Server
	Tokens
}

const (
	envPrefix      = "MARKET"
	configFileName = "config"
)

// New builds the configuration from environment variables, an optional
// config.yml (working directory or $HOME/.market) and defaults.
func New() Config {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".market"))
	}
	// A missing config file is fine, env and defaults still apply
	_ = v.ReadInConfig()
	return NewFromViper(v)
}

// NewFromViper wires an existing viper instance, applying env bindings and defaults.
func NewFromViper(v *viper.Viper) Config {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyEnv, "ENV")
	_ = v.BindEnv(keyPort, "PORT")
	_ = v.BindEnv(keyLogLevel, "LOG_LEVEL")
	setDefaults(v)

	return mainConfig{
		EnvVars: EnvVars{v: v},
		Client:  Client{v: v},
		Storage: Storage{v: v},
		Server:  Server{v: v},
		Tokens:  Tokens{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAppName, "Market")
	v.SetDefault(keyEnv, "DEV")
	v.SetDefault(keyLogLevel, "info")

	v.SetDefault(keyBaseURL, "https://backend-practice.eurisko.me/api")
	v.SetDefault(keyRequestTimeout, 30*time.Second)
	v.SetDefault(keyTracing, false)
	v.SetDefault(keyGeocodeURL, "https://maps.googleapis.com/maps/api/geocode/json")

	v.SetDefault(keyCredentialsBackend, BackendFile)
	v.SetDefault(keyCredentialsFile, defaultCredentialsFile())
	v.SetDefault(keyRedisAddr, "localhost:6379")
	v.SetDefault(keyRedisDB, 0)
	v.SetDefault(keyRedisPrefix, "market:")

	v.SetDefault(keyPort, "8080")
	v.SetDefault(keySeedEmail, "demo@market.local")
	v.SetDefault(keySeedProducts, true)
	v.SetDefault(keySigningSecret, "dev-secret-change-me")
	v.SetDefault(keyAccessTokenExpiry, 15*time.Minute)
	v.SetDefault(keyRefreshTokenExpiry, 7*24*time.Hour)
	v.SetDefault(keyRefreshTokenLength, 32)
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".market-credentials.json"
	}
	return filepath.Join(home, ".market", "credentials.json")
}
