package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	keyAppName  = "app_name"
	keyEnv      = "env"
	keyLogLevel = "log_level"

	keyBaseURL        = "base_url"
	keyRequestTimeout = "request_timeout"
	keyTracing        = "tracing"
	keyGeocodeAPIKey  = "geocode_api_key"
	keyGeocodeURL     = "geocode_url"

	keyCredentialsBackend    = "credentials_backend"
	keyCredentialsFile       = "credentials_file"
	keyCredentialsPassphrase = "credentials_passphrase"
	keyRedisAddr             = "redis_addr"
	keyRedisPassword         = "redis_password"
	keyRedisDB               = "redis_db"
	keyRedisPrefix           = "redis_prefix"
)

// Credential store backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(keyAppName)
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.GetString(keyEnv))
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(keyLogLevel)
}

type Client struct {
	v *viper.Viper
}

var _ ClientConfig = Client{}

// GetBaseURL returns the API root every request path is resolved against
func (c Client) GetBaseURL() string {
	return strings.TrimRight(c.v.GetString(keyBaseURL), "/")
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.v.GetDuration(keyRequestTimeout)
}

func (c Client) GetTracingEnabled() bool {
	return c.v.GetBool(keyTracing)
}

func (c Client) GetGeocodeAPIKey() string {
	return c.v.GetString(keyGeocodeAPIKey)
}

func (c Client) GetGeocodeURL() string {
	return c.v.GetString(keyGeocodeURL)
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetCredentialsBackend() string {
	return strings.ToLower(s.v.GetString(keyCredentialsBackend))
}

func (s Storage) GetCredentialsFile() string {
	return s.v.GetString(keyCredentialsFile)
}

// GetCredentialsPassphrase enables at-rest encryption of the file store when set
func (s Storage) GetCredentialsPassphrase() string {
	return s.v.GetString(keyCredentialsPassphrase)
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(keyRedisAddr)
}

func (s Storage) GetRedisPassword() string {
	return s.v.GetString(keyRedisPassword)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(keyRedisDB)
}

func (s Storage) GetRedisKeyPrefix() string {
	return s.v.GetString(keyRedisPrefix)
}

// normalisePort prefixes a bare port number with a colon
func normalisePort(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] != ':' {
		return fmt.Sprintf(":%s", port)
	}
	return port
}
