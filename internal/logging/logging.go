// Package logging configures the process-wide zap logger with file
// rotation. The daemon writes structured logs to a rotating file; CLI
// verbs log to stderr only when verbose output is requested.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zap.NewNop()

// Options selects where and how much to log.
type Options struct {
	Level   string // debug | info | warn | error
	File    string // empty means stderr only
	Console bool   // duplicate output to stderr
}

// Init builds and installs the global logger. Safe to call once at
// process start; before Init the global logger discards everything.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(strings.ToLower(opts.Level)); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level))
	}
	if opts.Console || opts.File == "" {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	logger = zap.New(zapcore.NewTee(cores...))
	zap.ReplaceGlobals(logger)
	return nil
}

// L returns the installed logger.
func L() *zap.Logger { return logger }

// Sync flushes buffered entries. Called on shutdown.
func Sync() {
	_ = logger.Sync()
}
