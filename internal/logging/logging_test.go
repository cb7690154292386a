package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	return event
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerWithConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bintrade.log")
	logger := NewLoggerWithConfig(LogConfig{
		Level:      "warn",
		File:       true,
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("below level")
	logger.Warn().Str("key", "balance").Msg("above level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below level")
	assert.Contains(t, string(data), "above level")
	assert.Contains(t, string(data), `"key":"balance"`)
}

func TestNewLoggerWithoutWritersDiscards(t *testing.T) {
	logger := NewLoggerWithConfig(LogConfig{Level: "debug"})
	assert.NotPanics(t, func() {
		logger.Info().Msg("dropped")
	})
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), WithOperation(logger, "auto"))
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("hello")

	event := decode(t, &buf)
	assert.Equal(t, "auto", event["operation"])
	assert.Equal(t, "hello", event["message"])

	assert.NotPanics(t, func() {
		nopLogger := FromContext(context.Background())
		nopLogger.Info().Msg("nop")
	})
}

func TestLogTrade(t *testing.T) {
	var buf bytes.Buffer
	LogTrade(zerolog.New(&buf), "up", 100, 9900, true)

	event := decode(t, &buf)
	assert.Equal(t, "trade", event["event"])
	assert.Equal(t, "up", event["direction"])
	assert.Equal(t, 100.0, event["stake"])
	assert.Equal(t, 9900.0, event["balance"])
	assert.Equal(t, true, event["auto"])
}

func TestLogSettlement(t *testing.T) {
	var buf bytes.Buffer
	LogSettlement(WithTradeID(zerolog.New(&buf), "t-1"), "up", "down", "lost", -100, 9900)

	event := decode(t, &buf)
	assert.Equal(t, "settlement", event["event"])
	assert.Equal(t, "t-1", event["trade_id"])
	assert.Equal(t, "down", event["drawn"])
	assert.Equal(t, -100.0, event["payout"])
}

func TestLogStoreWriteLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogStoreWrite(logger, "balance", nil)
	assert.Equal(t, "debug", decode(t, &buf)["level"])

	buf.Reset()
	LogStoreWrite(logger, "balance", errors.New("disk full"))
	event := decode(t, &buf)
	assert.Equal(t, "error", event["level"])
	assert.Equal(t, "disk full", event["error"])
}

func TestLogAutoTradeReason(t *testing.T) {
	var buf bytes.Buffer
	LogAutoTrade(zerolog.New(&buf), false, "halted")

	event := decode(t, &buf)
	assert.Equal(t, false, event["active"])
	assert.Equal(t, "halted", event["reason"])
}
