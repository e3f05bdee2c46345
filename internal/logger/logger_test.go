package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"trade-journal-go/internal/config"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         config.Logger
		expectLevel zapcore.Level
		expectError bool
	}{
		{name: "json debug", cfg: config.Logger{Level: "debug", Format: "json"}, expectLevel: zapcore.DebugLevel},
		{name: "console warn", cfg: config.Logger{Level: "WARN", Format: "console"}, expectLevel: zapcore.WarnLevel},
		{name: "empty level defaults to info", cfg: config.Logger{Format: "console"}, expectLevel: zapcore.InfoLevel},
		{name: "invalid level", cfg: config.Logger{Level: "loud", Format: "json"}, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := NewLogger(tc.cfg)

			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tc.expectLevel))
			assert.False(t, log.Core().Enabled(tc.expectLevel-1))
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "journal.log")
	log, err := NewLogger(config.Logger{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	// Act
	log.Named("trades").Info("Trade created")
	require.NoError(t, log.Sync())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Trade created", entry["msg"])
	assert.Equal(t, "trades", entry["logger"])
	assert.Equal(t, "trade-journal", entry["service"])
}
