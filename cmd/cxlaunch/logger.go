package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/config"
)

// createLogger logs JSON to stderr, or to a rotated CXLAUNCH_LOG_FILE.
// Stdout is reserved for command output.
func createLogger(cfg *config.Config) *zap.Logger {
	if cfg.LogDev {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg.LogFile != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    1,
			MaxBackups: 2,
		})
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core, zap.AddCaller())
}
