// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// File, when set, receives JSON logs rotated by lumberjack.
	File string
	// Console is where human readable logs go; stdout when nil.
	Console io.Writer
}

var configureOnce sync.Once

// Configure installs the global logger once per process and returns it.
func Configure(cfg Config) zerolog.Logger {
	configureOnce.Do(func() {
		log.Logger = New(cfg)
	})
	return log.Logger
}

// ConfigureTests logs at debug level without timestamps.
func ConfigureTests() {
	configureOnce.Do(func() {
		out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(out).With().Logger()
	})
}

// New builds a logger without touching global state.
func New(cfg Config) zerolog.Logger {
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    32, // MB
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		})
	}

	lvl, ok := ParseLevel(cfg.Level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Str("app", "ensemble-predict").Logger()
	if !ok && cfg.Level != "" {
		logger.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
	}
	return logger
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
