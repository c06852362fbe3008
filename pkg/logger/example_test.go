package logger_test

import (
	"errors"

	"github.com/wonny/aegis-signal/backend/pkg/config"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging with module and fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg).WithModule("sector")

	log.WithFields(map[string]interface{}{
		"sectors": 12,
		"flow":    true,
	}).Info("Sector ranking completed")

	err := errors.New("naver: circuit open")
	log.WithError(err).WithField("symbol", "005930").Warn("Series fetch failed")
}
