package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	assert.Equal(t, DefaultLevel, cfg.Level)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestNew_JSONAndConsole(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err)
		l.With(String("run_id", "abc")).Debug("hello", Int("n", 1))
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.With(String("k", "v")).Error("ignored")
	assert.NoError(t, l.Sync())
}
