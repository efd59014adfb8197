package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"debug", zap.DebugLevel},
		{"INFO", zap.InfoLevel},
		{" warn ", zap.WarnLevel},
		{"error", zap.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown log level "verbose"`)
}

func TestNew(t *testing.T) {
	logger, err := New("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	_, err = New("loud")
	assert.Error(t, err)
}

func TestProductionConfig_LogsEveryEntry(t *testing.T) {
	cfg := productionConfig(zap.InfoLevel)
	assert.Nil(t, cfg.Sampling)

	path := filepath.Join(t.TempDir(), "log.json")
	cfg.OutputPaths = []string{path}
	logger, err := cfg.Build()
	require.NoError(t, err)

	// zap's default sampler keeps only the first 100 identical entries per second.
	for i := range 500 {
		logger.Warn("transaction rejected", zap.Int("line", i+2))
	}
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 500)
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter("info", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("transaction rejected", zap.String("reason", "duplicate"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "transaction rejected", entry["msg"])
	assert.Equal(t, "duplicate", entry["reason"])
}
