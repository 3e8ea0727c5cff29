package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-market-client/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.NewFromViper(viper.New())

	require.Equal(t, "https://backend-practice.eurisko.me/api", c.GetBaseURL())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.BackendFile, c.GetCredentialsBackend())
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 32, c.GetRefreshTokenLength())
	require.Equal(t, "https://maps.googleapis.com/maps/api/geocode/json", c.GetGeocodeURL())
	require.Equal(t, "http://localhost:8080", c.GetPublicURL())
	require.Equal(t, "demo@market.local", c.GetSeedEmail())
	require.True(t, c.GetSeedProducts())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_BASE_URL", "http://localhost:9000/api/")
	t.Setenv("MARKET_REQUEST_TIMEOUT", "5s")
	t.Setenv("MARKET_CREDENTIALS_BACKEND", "Redis")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")

	c := config.NewFromViper(viper.New())

	require.Equal(t, "http://localhost:9000/api", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.BackendRedis, c.GetCredentialsBackend())
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
}
