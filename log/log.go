// Package log wraps zap for structured logging, with lumberjack as the
// rotating file sink. It replaces the teacher's calls into the internal
// trpc-go/log package, which is not a fetchable public dependency.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the rotating file sink. A zero-value Config logs to
// stderr only.
type Config struct {
	Level      string // debug|info|warn|error, default info
	Filename   string // rotating log file path; empty disables file output
	MaxSizeMB  int    // default 100
	MaxBackups int    // default 3
	MaxAgeDays int    // default 28
}

var (
	mu sync.Mutex
	l  = zap.NewNop().Sugar()
)

// Init installs the process-wide logger built from cfg. Safe to call
// multiple times; the last call wins.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return err
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level),
	}

	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))

	mu.Lock()
	l = logger.Sugar()
	mu.Unlock()
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return l
}

func Debugf(template string, args ...interface{}) { current().Debugf(template, args...) }
func Infof(template string, args ...interface{})  { current().Infof(template, args...) }
func Warnf(template string, args ...interface{})  { current().Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { current().Errorf(template, args...) }
func Fatal(args ...interface{})                   { current().Fatal(args...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = current().Sync()
}
