package logger_test

import (
	"errors"

	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/logger"
)

// ExampleNew demonstrates basic logger usage
func ExampleNew() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Provider degraded")

	log.Infof("Scanning %d symbols", 12)
	log.Warnf("Retry attempt %d of %d", 3, 5)
}

// ExampleLogger_WithFields demonstrates structured logging with fields
func ExampleLogger_WithFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	scanLog := log.WithFields(map[string]interface{}{
		"symbol":  "AAPL",
		"verdict": "GO",
		"score":   78.5,
	})
	scanLog.Info("Decision recorded")
}

// ExampleLogger_WithError demonstrates error logging
func ExampleLogger_WithError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	err := errors.New("provider connection timeout")
	log.WithError(err).Error("Failed to fetch options chain")

	log.WithError(err).
		WithFields(map[string]interface{}{
			"provider":    "tradier",
			"retry_count": 3,
		}).
		Error("Falling through to next provider")
}
