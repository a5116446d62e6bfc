package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. Init must run before anything logs.
var Log *zap.Logger

// Init builds the global logger: colored console output at debug level in
// development, JSON at info level in production. Production timestamps are
// ISO8601 so log lines sort next to the reverse proxy's access log.
func Init(isDevelopment bool) error {
	var config zap.Config

	if isDevelopment {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	built, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return err
	}

	Log = built
	return nil
}

// Sync flushes buffered entries; call it on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
