package logger

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesLogfmtToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	log, err := New("not-a-level", "bank-console", path)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hello")
	_ = log.Sync()

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "msg=hello")
	assert.Contains(t, string(out), "service=bank-console")
	assert.NotContains(t, string(out), "hidden", "unknown level falls back to info")
}
