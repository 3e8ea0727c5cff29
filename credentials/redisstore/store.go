// Package redisstore keeps credentials in Redis, for clients that share a
// session across processes or hosts.
package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ credentials.Store = (*Store)(nil)

// Commander is the subset of the Redis API the store uses. *redis.Client satisfies it.
type Commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a credentials.Store backed by Redis. Keys never expire; the
// server decides token lifetime.
type Store struct {
	rdb    Commander
	prefix string
}

// New creates a store that namespaces every key with prefix
func New(rdb Commander, prefix string) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("[New] redis client is required")
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Connect dials Redis and verifies the connection with a PING
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis get %s", key)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, key)
}

func (s *Store) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, s.key(k))
	}
	if err := s.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
