// Package logging builds the application logger. The terminal belongs to the
// UI, so log output always goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"movie-booking-cli/config"
)

// New opens cfg.LogFile for appending and returns a JSON logger writing to
// it, plus a function that closes the file.
func New(cfg config.Config) (*logrus.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := NewWithWriter(f, cfg.LogLevel)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return logger, f.Close, nil
}

// NewWithWriter is New without the file handling.
func NewWithWriter(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard is a logger that drops everything, for tests and fallbacks.
func Discard() *logrus.Logger {
	return NewWithWriter(io.Discard, "panic")
}
