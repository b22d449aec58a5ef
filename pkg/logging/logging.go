// Package logging wraps zap behind logr, so the rest of this module
// logs through a small leveled interface instead of depending on a
// concrete logging backend.
package logging

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log wraps a logr.Logger with the Info/Debug/Trace verbosity
// shorthand the rest of this module calls.
type Log struct {
	logr.Logger
}

// New builds a named logger. production selects zap's production
// encoder (JSON, info level) over its development one (console,
// debug level with colorized levels). When logPath is non-empty, log
// output is additionally written to logPath/<name>.log.
func New(name, logPath string, production bool) (*Log, error) {
	var zc zap.Config
	if production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.DisableCaller = true
	zc.DisableStacktrace = true

	if logPath != "" {
		if err := os.MkdirAll(logPath, fs.ModeDir); err != nil {
			return nil, fmt.Errorf("logging: creating log directory: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, filepath.Join(logPath, fmt.Sprintf("%s.log", name)))
	}

	z, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}

	return &Log{Logger: zapr.NewLogger(z).WithName(name)}, nil
}

// NewSimple returns a console logger built from zap's development
// config, for CLI entry points that don't need file output or config
// plumbing. If that logger cannot be built, zap's global logger is used.
func NewSimple(name string) *Log {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.L()
	}
	return &Log{Logger: zapr.NewLogger(z.Named(name))}
}

// New returns a named child of l.
func (l *Log) New(path string) *Log {
	return &Log{Logger: l.WithName(path)}
}

// Info logs at verbosity 0.
func (l *Log) Info(msg string, args ...interface{}) {
	l.Logger.V(0).WithValues(args...).Info(msg)
}

// Debug logs at verbosity 1.
func (l *Log) Debug(msg string, args ...interface{}) {
	l.Logger.V(1).WithValues(args...).Info(msg)
}

// Trace logs at verbosity 2.
func (l *Log) Trace(msg string, args ...interface{}) {
	l.Logger.V(2).WithValues(args...).Info(msg)
}
