// Package tokens stores the bearer token used for REST and push authentication.
package tokens

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"

	// External Packages
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no usable token is stored.
var ErrNoToken = errors.E(errors.Unauthenticated, "not logged in, run `bank-console login`", nil)

type Store interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// DefaultPath is the token file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bankfeed", "token"), nil
}

// FileStore keeps the token in a file readable only by its owner.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore returns a store at path, or at DefaultPath when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.E(errors.Internal, "cannot locate config directory", err)
		}
		path = p
	}
	return &FileStore{path: path, now: time.Now}, nil
}

func (s *FileStore) Path() string { return s.path }

// Get returns the stored token. An expired JWT is removed and reported as ErrNoToken.
func (s *FileStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", errors.E(errors.Internal, "cannot read token", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	if Expired(token, s.now()) {
		_ = s.remove()
		return "", ErrNoToken
	}
	return token, nil
}

func (s *FileStore) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.EmptyParamErr("token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.E(errors.Internal, "cannot create token directory", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return errors.E(errors.Internal, "cannot write token", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return errors.E(errors.Internal, "cannot protect token file", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *FileStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.E(errors.Internal, "cannot remove token", err)
	}
	return nil
}

// MemoryStore holds a token for the life of the process, as when it comes from BANK_API_TOKEN.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: strings.TrimSpace(token)}
}

func (s *MemoryStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || Expired(s.token, time.Now()) {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Set("")
}

// Expired reports whether token is a JWT whose exp claim is not after now. The signature is not
// checked; opaque tokens and JWTs without exp never expire here.
func Expired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
