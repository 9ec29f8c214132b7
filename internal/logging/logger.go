// Package logging wraps zerolog behind a leveled, ergonomic call surface:
// colorized console output when attached to a TTY, line-oriented JSON
// otherwise, with an optional file sink that always receives JSON.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mdsohelmia/smartchunking/internal/config"
	"github.com/mdsohelmia/smartchunking/internal/term"
)

// Logger is a thin, leveled wrapper around a zerolog.Logger. Derived
// loggers (Component, Stage, ChunkIndex) share the same file handle so
// Close only needs to be called on the root logger.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// NewLogger builds the console/JSON/file writer stack per cfg and opens a
// log file if cfg.LogFile is set. The caller must call [Logger.Close] on
// the returned root logger when finished.
func NewLogger(cfg *config.Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	if cfg.JSONLogs || !term.IsTerminal(os.Stdout) {
		writers = append(writers, os.Stdout)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    !term.ColorEnabled(cfg.ColorMode, os.Stdout),
		})
	}

	var file *os.File
	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	zl := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl, file: file}, nil
}

// Close closes the log file, if one was opened. Safe to call once.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Component returns a derived logger that tags every subsequent entry with
// component=name (e.g. "splitter", "stitcher").
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger(), file: l.file}
}

// Stage tags every subsequent entry with stage=name (e.g. "probe", "plan").
func (l *Logger) Stage(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("stage", name).Logger(), file: l.file}
}

// ChunkIndex tags every subsequent entry with chunk_index=i.
func (l *Logger) ChunkIndex(i int) *Logger {
	return &Logger{zl: l.zl.With().Int("chunk_index", i).Logger(), file: l.file}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs a successful-completion message, tagged success=true so it
// stands out from ordinary progress logging in structured output.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Info().Bool("success", true).Msg(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs an error.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs a debug message. Suppressed unless the logger was built with
// cfg.Verbose set.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
