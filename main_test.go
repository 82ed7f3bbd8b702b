package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("BNAV_REGION", "eu-central-1")
	t.Setenv("BNAV_PAGE_SIZE", "250")
	t.Setenv("BNAV_LOG_FILE", "/tmp/bnav.log")
	t.Setenv("DEFAULT_BUCKET_NAME", "photos/2024")
	t.Setenv("BNAV_FLAT", "true")

	s := settingsFrom(newViper())
	assert.Equal(t, "eu-central-1", s.Region)
	assert.Equal(t, 250, s.PageSize)
	assert.Equal(t, "/tmp/bnav.log", s.LogFile)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "photos/2024", s.DefaultAddress)
	assert.True(t, s.FlatListing)
}

func TestSettingsDefaults(t *testing.T) {
	s := settingsFrom(newViper())
	assert.Equal(t, 1000, s.PageSize)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.Endpoint)
	assert.False(t, s.FlatListing)
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "endpoint", "region", "page-size", "log-file", "log-level", "flat"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	err := cmd.Args(cmd, []string{"a", "b"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("", "debug")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel), "no file means no logging")

	path := filepath.Join(t.TempDir(), "bnav.log")
	logger, err = newLogger(path, "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	logger.Warn("Operation failed", zap.String("op", "list"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"Operation failed"`)
	assert.Contains(t, string(raw), `"op":"list"`)

	_, err = newLogger(path, "loud")
	assert.Error(t, err)
}

func TestReported(t *testing.T) {
	cause := errors.New("boom")
	err := reported(cause)
	assert.ErrorIs(t, err, errReported)
	assert.ErrorIs(t, err, cause)
}
