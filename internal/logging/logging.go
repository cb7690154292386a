// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	// Console goes to stderr so it never interleaves with command output.
	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return logger
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// WithTradeID adds a trade ID to the logger context.
func WithTradeID(logger zerolog.Logger, tradeID string) zerolog.Logger {
	return logger.With().Str("trade_id", tradeID).Logger()
}

// LogTrade logs a trade placement.
func LogTrade(logger zerolog.Logger, direction string, stake, balance float64, auto bool) {
	logger.Info().
		Str("event", "trade").
		Str("direction", direction).
		Float64("stake", stake).
		Float64("balance", balance).
		Bool("auto", auto).
		Msg("Trade placed")
}

// LogSettlement logs a resolved trade.
func LogSettlement(logger zerolog.Logger, direction, drawn, outcome string, payout, balance float64) {
	logger.Info().
		Str("event", "settlement").
		Str("direction", direction).
		Str("drawn", drawn).
		Str("outcome", outcome).
		Float64("payout", payout).
		Float64("balance", balance).
		Msg("Trade resolved")
}

// LogRejection logs a refused trade placement.
func LogRejection(logger zerolog.Logger, reason string, stake, balance float64) {
	logger.Warn().
		Str("event", "rejection").
		Str("reason", reason).
		Float64("stake", stake).
		Float64("balance", balance).
		Msg("Trade rejected")
}

// LogAutoTrade logs an auto-trade mode change.
func LogAutoTrade(logger zerolog.Logger, active bool, reason string) {
	event := logger.Info().
		Str("event", "auto_trade").
		Bool("active", active)
	if reason != "" {
		event = event.Str("reason", reason)
	}
	event.Msg("Auto trade mode changed")
}

// LogStoreWrite logs a persistence write.
func LogStoreWrite(logger zerolog.Logger, key string, err error) {
	if err != nil {
		logger.Error().
			Str("event", "store_write").
			Str("key", key).
			Err(err).
			Msg("Store write failed")
		return
	}
	logger.Debug().
		Str("event", "store_write").
		Str("key", key).
		Msg("Store write completed")
}
