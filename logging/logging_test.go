package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/searchktools/wire-server/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"ERROR", slog.LevelError, true},
		{"trace", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, closer, err := New(config.LoggingConfig{Level: "WARN", Format: "json", Output: path}, nil)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("peer", "127.0.0.1:1"))
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "127.0.0.1:1", rec["peer"])
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "LOUD"}, nil)
	assert.Error(t, err)

	_, _, err = New(config.LoggingConfig{Level: "INFO", Format: "xml", Output: "stderr"}, nil)
	assert.Error(t, err)

	_, _, err = New(config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")}, nil)
	assert.Error(t, err)
}

type recordingExporter struct {
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestNewBridgesToOpenTelemetry(t *testing.T) {
	exp := &recordingExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	defer lp.Shutdown(context.Background())

	logger, closer, err := New(config.LoggingConfig{Level: "INFO", Format: "text", Output: "stderr"}, lp)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("below level")
	logger.With(slog.String("component", "engine")).Info("bridged")

	require.Len(t, exp.records, 1)
	assert.Equal(t, "bridged", exp.records[0].Body().AsString())
}

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	h := Fanout(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).WithGroup("req")

	logger.Info("hello", slog.Int("n", 1))
	assert.Contains(t, a.String(), "req.n=1")
	assert.Empty(t, b.String())

	logger.Error("boom")
	assert.Contains(t, b.String(), "boom")
}
