package tokens

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"
	"time"

	// Local Packages
	errors "bankfeed/errors"

	// External Packages
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Set("  opaque-token \n"))
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, err = s.Get()
	assert.True(t, errors.IsKind(err, errors.Unauthenticated))
}

func TestFileStoreTightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreDropsExpiredJWT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	now := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(signed(t, now.Add(-time.Minute))))
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoToken)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "expired token file is removed")

	valid := signed(t, now.Add(time.Hour))
	require.NoError(t, s.Set(valid))
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, valid, got)
}

func TestSetRejectsEmptyToken(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	err = s.Set("   ")
	assert.True(t, errors.IsKind(err, errors.Invalid))
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.True(t, Expired(signed(t, now), now))
	assert.False(t, Expired(signed(t, now.Add(time.Second)), now))
	assert.False(t, Expired(noExp, now))
	assert.False(t, Expired("opaque", now))
	assert.False(t, Expired("a.b.c", now))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("env-token")
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "env-token", got)

	require.NoError(t, s.Clear())
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoToken)
}
