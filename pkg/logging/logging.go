// Package logging builds the logrus loggers used across the interop layer.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nooga/jsinterop/pkg/config"
)

// New creates a logger writing to stderr with the level and format from cfg.
func New(cfg config.Config) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	level := logrus.WarnLevel
	if cfg.LogLevel.Valid {
		lvl, err := logrus.ParseLevel(cfg.LogLevel.String)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel.String, err)
		}
		level = lvl
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.LogFormat.String) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat.String)
	}
	return logger, nil
}

// Discard returns a logger whose lines are thrown away.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
