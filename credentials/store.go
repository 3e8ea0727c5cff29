package credentials

import "context"

// Fixed keys under which the token pair is persisted
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// Store is a durable key-value store. Get reports found=false for an absent key
// rather than an error; Remove and RemoveMany ignore absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys ...string) error
}
