package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCommander records the Redis commands issued by the store
type mockCommander struct{ mock.Mock }

func (m *mockCommander) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCommander) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCommander) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestGetFoundAndMissing(t *testing.T) {
	rdb := new(mockCommander)
	rdb.On("Get", "market:accessToken").Return(redis.NewStringResult("a1", nil)).Once()
	rdb.On("Get", "market:refreshToken").Return(redis.NewStringResult("", redis.Nil)).Once()

	s, err := New(rdb, "market:")
	require.NoError(t, err)

	v, found, err := s.Get(context.Background(), credentials.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a1", v)

	_, found, err = s.Get(context.Background(), credentials.KeyRefreshToken)
	require.NoError(t, err)
	require.False(t, found)

	rdb.AssertExpectations(t)
}

func TestGetError(t *testing.T) {
	rdb := new(mockCommander)
	rdb.On("Get", "market:accessToken").Return(redis.NewStringResult("", errors.New("connection refused"))).Once()

	s, err := New(rdb, "market:")
	require.NoError(t, err)

	_, _, err = s.Get(context.Background(), credentials.KeyAccessToken)
	require.ErrorContains(t, err, "connection refused")
}

func TestSaveAndClear(t *testing.T) {
	rdb := new(mockCommander)
	rdb.On("Set", "market:accessToken", "a2", time.Duration(0)).Return(redis.NewStatusResult("OK", nil)).Once()
	rdb.On("Set", "market:refreshToken", "r2", time.Duration(0)).Return(redis.NewStatusResult("OK", nil)).Once()
	rdb.On("Del", []string{"market:accessToken", "market:refreshToken"}).Return(redis.NewIntResult(2, nil)).Once()

	s, err := New(rdb, "market:")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, credentials.Save(ctx, s, credentials.Credentials{AccessToken: "a2", RefreshToken: "r2"}))
	require.NoError(t, credentials.Clear(ctx, s))

	rdb.AssertExpectations(t)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, "market:")
	require.Error(t, err)
}
