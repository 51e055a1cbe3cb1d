package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/five82/seer/internal/logtail"
)

func TestNew_WritesJSONReadableByLogtail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "seer.log")
	logger, closeFn, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Named("api").Debug("refreshing token", zap.Int("waiters", 2))
	closeFn()

	lines, err := logtail.Read(path, 0)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	entry, ok := logtail.Parse(lines[0])
	require.True(t, ok)
	assert.Equal(t, "debug", entry.Level)
	assert.Equal(t, "seer.api", entry.Logger)
	assert.Equal(t, "refreshing token", entry.Message)
	assert.EqualValues(t, 2, entry.Fields["waiters"])
	assert.False(t, entry.Time.IsZero())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seer.log")
	logger, closeFn, err := New(Options{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	closeFn()

	lines, err := logtail.Read(path, 0)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestNew_VerboseWritesConsole(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeFn, err := New(Options{Verbose: true, Stderr: &stderr})
	require.NoError(t, err)

	logger.Info("hello")
	closeFn()

	assert.True(t, strings.Contains(stderr.String(), "hello"))
	assert.False(t, strings.HasPrefix(strings.TrimSpace(stderr.String()), "{"))
}

func TestNew_NoSinksIsNop(t *testing.T) {
	logger, closeFn, err := New(Options{})
	require.NoError(t, err)
	defer closeFn()
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
