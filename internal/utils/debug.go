package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ytleenf/ytclient/internal/config"
)

var (
	logger  = newDiscardLogger()
	enabled atomic.Bool
)

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetupLogging configures the developer log. When writing is disabled every
// message is discarded so nothing reaches the terminal the TUI draws on.
func SetupLogging(s config.LogSettings, fs afero.Fs) (io.Closer, error) {
	if !s.Write {
		enabled.Store(false)
		logger.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}

	dir := config.GetLogsDir()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return f, configure(f, s)
}

// SetLogOutput routes the developer log to w. Tests use it to capture output.
func SetLogOutput(w io.Writer, s config.LogSettings) error {
	return configure(w, s)
}

func configure(w io.Writer, s config.LogSettings) error {
	logger.SetOutput(w)
	if s.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(s.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	enabled.Store(true)
	return nil
}

// Logger exposes the developer logger for callers that need fields.
func Logger() *logrus.Logger {
	return logger
}

// Debug writes a debug message to the developer log.
func Debug(format string, args ...any) {
	if enabled.Load() {
		logger.Debugf(format, args...)
	}
}

func Info(format string, args ...any) {
	if enabled.Load() {
		logger.Infof(format, args...)
	}
}

func Warn(format string, args ...any) {
	if enabled.Load() {
		logger.Warnf(format, args...)
	}
}

func Error(format string, args ...any) {
	if enabled.Load() {
		logger.Errorf(format, args...)
	}
}
