// Package filestore persists credentials as a JSON document on local disk,
// optionally sealed with a passphrase derived key.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-market-client/credentials"
	apperrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

var _ credentials.Store = (*Store)(nil)

const (
	fileMode = 0o600
	dirMode  = 0o700

	saltLength  = 16
	nonceLength = 24
	keyLength   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// document is the on-disk layout. Plain stores use Values; sealed stores
// keep Salt, Nonce and Sealed (secretbox of the JSON encoded values).
type document struct {
	Values map[string]string `json:"values,omitempty"`
	Salt   []byte            `json:"salt,omitempty"`
	Nonce  []byte            `json:"nonce,omitempty"`
	Sealed []byte            `json:"sealed,omitempty"`
}

// Store is a file backed credentials.Store. Every operation reads the file so
// values written by another process are observed.
type Store struct {
	path string
	salt []byte
	key  *[keyLength]byte
	lock sync.Mutex
}

// Option configures a Store
type Option func(*Store) error

// WithPassphrase seals the file with a key derived from passphrase (argon2id)
func WithPassphrase(passphrase string) Option {
	return func(s *Store) error {
		if passphrase == "" {
			return nil
		}
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		salt := doc.Salt
		if len(salt) == 0 {
			salt = make([]byte, saltLength)
			if _, err := rand.Read(salt); err != nil {
				return errors.Wrap(err, "[WithPassphrase] salt")
			}
		}
		derived := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keyLength)
		s.salt = salt
		s.key = new([keyLength]byte)
		copy(s.key[:], derived)
		return nil
	}
}

// New opens (without creating) the store at path
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[New] path is required")
	}
	s := &Store{path: path}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, key)
}

func (s *Store) RemoveMany(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(values)
}

func (s *Store) readDocument() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "decode %s", s.path)
	}
	return doc, nil
}

func (s *Store) load() (map[string]string, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	if len(doc.Sealed) == 0 {
		if doc.Values == nil {
			return make(map[string]string), nil
		}
		return doc.Values, nil
	}
	if s.key == nil {
		return nil, errors.New("credential file is encrypted and no passphrase was given")
	}
	if len(doc.Nonce) != nonceLength {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "nonce length %d", len(doc.Nonce))
	}
	var nonce [nonceLength]byte
	copy(nonce[:], doc.Nonce)
	plain, ok := secretbox.Open(nil, doc.Sealed, &nonce, s.key)
	if !ok {
		return nil, errors.New("credential file could not be decrypted, wrong passphrase?")
	}
	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "decode sealed values")
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	doc := document{Values: values}
	if s.key != nil {
		plain, err := json.Marshal(values)
		if err != nil {
			return errors.Wrap(err, "encode values")
		}
		var nonce [nonceLength]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return errors.Wrap(err, "nonce")
		}
		doc = document{
			Salt:   s.salt,
			Nonce:  nonce[:],
			Sealed: secretbox.Seal(nil, plain, &nonce, s.key),
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	return writeAtomic(s.path, data)
}

// writeAtomic replaces path via a temp file in the same directory
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}
