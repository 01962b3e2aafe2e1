package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	l := New(Config{Level: "error", Format: "json", Output: "stderr"}, core)
	l.Info("sale created", zap.String("sale_id", "s-1"))

	// The extra core filters on its own level, independent of the local one
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sale created", entries[0].Message)
	assert.Equal(t, "s-1", entries[0].ContextMap()["sale_id"])
}

func TestNew_FileOutput(t *testing.T) {
	path := t.TempDir() + "/ledger.log"

	l := New(Config{Level: "info", Format: "json", Output: path})
	l.Info("written to file")
	require.NoError(t, l.Sync())

	assert.FileExists(t, path)
}
