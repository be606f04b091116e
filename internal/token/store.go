// Package token holds the bearer credential used by providers requiring
// delegated auth. The credential is acquired out-of-band (the authorization
// flow lives outside this core) and lands in a durable file; this store only
// reads it, tracks expiry, and persists refreshed values.
package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/carsongrett/nocharts/internal/provider"
)

// persisted is the on-disk token shape.
type persisted struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store reads and writes the bearer token file. Safe for concurrent use only
// through its methods; the file itself is replaced atomically on Save.
type Store struct {
	fs   afero.Fs
	path string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a token store over fs at path.
func NewStore(fs afero.Fs, path string, opts ...Option) *Store {
	s := &Store{fs: fs, path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the stored bearer value when present and unexpired. A missing
// file, unreadable payload, empty value, or reached expiry all surface as an
// auth-required error; the caller decides whether to trigger re-authorization.
func (s *Store) Token() (string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return "", provider.NewAuthRequiredError("no stored bearer token")
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return "", provider.NewAuthRequiredError("stored bearer token is unreadable")
	}
	if p.AccessToken == "" {
		return "", provider.NewAuthRequiredError("stored bearer token is empty")
	}
	if !s.now().Before(p.ExpiresAt) {
		return "", provider.NewAuthRequiredError("stored bearer token has expired")
	}
	return p.AccessToken, nil
}

// Save persists a fresh token valid for ttl from now. The write goes through
// a temp file and rename so a crash never leaves a half-written credential.
func (s *Store) Save(value string, ttl time.Duration) error {
	if value == "" {
		return fmt.Errorf("refusing to save empty token")
	}

	p := persisted{
		AccessToken: value,
		ExpiresAt:   s.now().Add(ttl),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Missing file is not an error.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
