// Package logger builds the zap logger used by all commands.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger and its flush function. Production mode logs
// JSON; development mode logs colored console lines at debug level.
func New(isProd bool) (*zap.Logger, func() error) {
	var log *zap.Logger

	if isProd {
		log = zap.Must(zap.NewProduction())
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		log = zap.Must(cfg.Build())
	}

	return log, log.Sync
}
