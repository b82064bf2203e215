package logzer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLogHandler(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "zbxctl.log")
	setLogger(WithLevel(zerolog.InfoLevel), WithLogFile(&LogFile{FilePath: fileName}))

	slogger := slog.New((&SLogHandler{CallerSkipFrame: 3}).
		WithGroup("zbxctl.sdk").
		WithAttrs([]slog.Attr{slog.String("apiUrl", "zabbix.local")}).
		WithGroup("clients"))

	slogger.LogAttrs(context.Background(), slog.LevelWarn, "could not send request",
		slog.Int("status", 502),
		slog.Duration("duration", 15*time.Millisecond),
		slog.Group("req", slog.String("rpcMethod", "host.get")))
	slogger.Debug("debug is filtered out")

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(content), `logger=["zbxctl.sdk","clients"]`)
	assert.Contains(t, string(content), `could not send request`)
	assert.Contains(t, string(content), `apiUrl=zabbix.local`)
	assert.Contains(t, string(content), `status=502`)
	assert.Contains(t, string(content), `req.rpcMethod=host.get`)
	assert.NotContains(t, string(content), `debug is filtered out`)
}

func TestSLogHandler_Enabled(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	h := &SLogHandler{}
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError+4))
	assert.Equal(t, zerolog.TraceLevel, zerologLevel(slog.LevelDebug-4))
	assert.Same(t, h, h.WithGroup(""))
}
