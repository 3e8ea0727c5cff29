package credentials_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-market-client/credentials"
	credentialsrepofake "github.com/jrsteele09/go-market-client/credentials/repofake"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := credentialsrepofake.NewFakeStore()

	require.NoError(t, credentials.Save(ctx, store, credentials.Credentials{AccessToken: "a1", RefreshToken: "r1"}))

	creds, err := credentials.Load(ctx, store)
	require.NoError(t, err)
	require.Equal(t, credentials.Credentials{AccessToken: "a1", RefreshToken: "r1"}, creds)

	require.NoError(t, credentials.Clear(ctx, store))
	creds, err = credentials.Load(ctx, store)
	require.NoError(t, err)
	require.Empty(t, creds.AccessToken)
	require.Empty(t, creds.RefreshToken)
}

func TestSaveWithoutRotationKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := credentialsrepofake.NewFakeStoreWith(map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	require.NoError(t, credentials.Save(ctx, store, credentials.Credentials{AccessToken: "a2"}))
	require.Equal(t, "a2", store.Value(credentials.KeyAccessToken))
	require.Equal(t, "r1", store.Value(credentials.KeyRefreshToken))
	require.Equal(t, 0, store.SetCount(credentials.KeyRefreshToken))
}

func TestSaveRequiresAccessToken(t *testing.T) {
	err := credentials.Save(context.Background(), credentialsrepofake.NewFakeStore(), credentials.Credentials{RefreshToken: "r1"})
	require.Error(t, err)
}

func TestTokenSetsBearerHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com/products", nil)
	require.NoError(t, err)

	credentials.Credentials{AccessToken: "a1"}.Token().SetAuthHeader(req)
	require.Equal(t, "Bearer a1", req.Header.Get("Authorization"))
}
