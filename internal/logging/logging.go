// Package logging provides centralized logging configuration for Wakili.
// The protocol client itself never logs; the CLI shell routes everything
// through this package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *slog.Logger
	globalMu     sync.RWMutex

	// logWriter holds the rotating file writer, if any, for Close.
	logWriter   io.WriteCloser
	logWriterMu sync.Mutex
)

// FileConfig configures file logging with rotation.
type FileConfig struct {
	// Path is the log file path. Empty disables file logging.
	Path string

	// MaxSizeMB is the size threshold for rotation. Default: 10.
	MaxSizeMB int

	// MaxBackups is the number of rotated files to retain. Default: 3.
	MaxBackups int

	// Compress controls gzip compression of rotated files.
	Compress bool
}

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// File configures optional file output with rotation.
	File FileConfig

	// JSON switches output to JSON records.
	JSON bool
}

// Initialize sets up the global logger. Console output goes to stderr;
// when a file path is configured, records are duplicated into a
// lumberjack-rotated file.
func Initialize(cfg Config) error {
	level := parseLevel(cfg.Level)

	logWriterMu.Lock()
	var w io.Writer = os.Stderr
	if cfg.File.Path != "" {
		maxSize := cfg.File.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := cfg.File.MaxBackups
		if maxBackups < 0 {
			maxBackups = 3
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   cfg.File.Compress,
		}
		logWriter = lj
		w = io.MultiWriter(os.Stderr, lj)
	}
	logWriterMu.Unlock()

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	slog.SetDefault(logger)
	return nil
}

// Get returns the global logger, or slog.Default() before Initialize.
func Get() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Close releases the log file writer, if one is open.
func Close() error {
	logWriterMu.Lock()
	defer logWriterMu.Unlock()

	if logWriter != nil {
		err := logWriter.Close()
		logWriter = nil
		return err
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger tagged with a component attribute.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// Auth returns a logger for authentication-flow events.
func Auth() *slog.Logger {
	return WithComponent("auth")
}

// Query returns a logger for query events.
func Query() *slog.Logger {
	return WithComponent("query")
}

// Health returns a logger for health-probe events.
func Health() *slog.Logger {
	return WithComponent("health")
}

// Prompts returns a logger for prompt-library events.
func Prompts() *slog.Logger {
	return WithComponent("prompts")
}

// CLI returns a logger for shell events.
func CLI() *slog.Logger {
	return WithComponent("cli")
}
