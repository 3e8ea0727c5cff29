package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-market-client/geocode"
	"github.com/jrsteele09/go-market-client/internal/config"
)

func setupGeocoder(t *testing.T, handler http.HandlerFunc) *geocode.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v := viper.New()
	v.Set("geocode_url", srv.URL)
	v.Set("geocode_api_key", "test-key")
	c, err := geocode.New(config.NewFromViper(v), geocode.WithHTTPClient(srv.Client()), geocode.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c
}

func TestLocationName(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "locality",
			status: http.StatusOK,
			body: `{"status":"OK","results":[{"formatted_address":"Hamra St, Beirut, Lebanon","address_components":[
				{"long_name":"Hamra St","types":["route"]},
				{"long_name":"Beirut","types":["locality","political"]}]}]}`,
			want: "Beirut",
		},
		{
			name:   "formatted address fallback",
			status: http.StatusOK,
			body:   `{"status":"OK","results":[{"formatted_address":"Mount Lebanon, Lebanon","address_components":[{"long_name":"Lebanon","types":["country"]}]}]}`,
			want:   "Mount Lebanon, Lebanon",
		},
		{
			name:   "no results",
			status: http.StatusOK,
			body:   `{"status":"ZERO_RESULTS","results":[]}`,
			want:   "Unknown location at (33.8938, 35.5018)",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			want:   "Unknown location at (33.8938, 35.5018)",
		},
		{
			name:   "bad json",
			status: http.StatusOK,
			body:   `{`,
			want:   "Unknown location at (33.8938, 35.5018)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query url.Values
			c := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query()
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			require.Equal(t, tt.want, c.LocationName(context.Background(), 33.8938, 35.5018))
			require.Equal(t, "33.8938,35.5018", query.Get("latlng"))
			require.Equal(t, "test-key", query.Get("key"))
		})
	}
}

func TestLocationNameUnreachable(t *testing.T) {
	v := viper.New()
	v.Set("geocode_url", "http://127.0.0.1:1")
	c, err := geocode.New(config.NewFromViper(v), geocode.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Equal(t, "Unknown location at (-1.2346, 2.0000)", c.LocationName(context.Background(), -1.23456, 2))
}
