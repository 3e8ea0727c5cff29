package credentialsrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-market-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store. It also counts writes so tests
// can assert on persistence side effects.
type FakeStore struct {
	values  map[string]string
	sets    map[string]int
	removes map[string]int
	lock    sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values:  make(map[string]string),
		sets:    make(map[string]int),
		removes: make(map[string]int),
	}
}

// NewFakeStoreWith seeds the store with values
func NewFakeStoreWith(values map[string]string) *FakeStore {
	s := NewFakeStore()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *FakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FakeStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	s.sets[key]++
	return nil
}

func (s *FakeStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
	s.removes[key]++
	return nil
}

func (s *FakeStore) RemoveMany(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the stored value or "" when absent
func (s *FakeStore) Value(key string) string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values[key]
}

// SetCount reports how many times key was written
func (s *FakeStore) SetCount(key string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sets[key]
}

// RemoveCount reports how many times key was removed
func (s *FakeStore) RemoveCount(key string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.removes[key]
}
