// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a leveled printf-style logger backed by zap.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	}
	return fmt.Sprintf("level(%d)", l)
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

var (
	atom   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	global atomic.Pointer[zap.SugaredLogger]
)

func init() {
	global.Store(newSugar("console", zapcore.Lock(os.Stderr)))
}

func newSugar(format string, out zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zap.New(zapcore.NewCore(enc, out, atom)).Sugar()
}

// Init replaces the global logger. format is "console" or "json".
func Init(level, format string) error {
	lv, err := ParseLevel(level)
	if err != nil {
		return err
	}
	switch format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	SetLogLevel(lv)
	global.Store(newSugar(format, zapcore.Lock(os.Stderr)))
	return nil
}

// SetOutput redirects the global logger, mostly for tests.
func SetOutput(format string, out zapcore.WriteSyncer) {
	global.Store(newSugar(format, out))
}

func SetLogLevel(l Level) {
	atom.SetLevel(l.zap())
}

func GetLogLevel() Level {
	switch atom.Level() {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.WarnLevel:
		return WarnLevel
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ErrorLevel
	}
	return InfoLevel
}

func Sync() {
	_ = global.Load().Sync()
}

func Debug(format string, args ...any) { global.Load().Debugf(format, args...) }
func Info(format string, args ...any)  { global.Load().Infof(format, args...) }
func Warn(format string, args ...any)  { global.Load().Warnf(format, args...) }
func Error(format string, args ...any) { global.Load().Errorf(format, args...) }

// Logger carries structured fields (job id, identifier, ...) on every line.
type Logger struct {
	kv []any
}

// With returns a Logger that attaches keysAndValues to each entry. The global
// logger is resolved per call so Init and SetOutput still apply.
func With(keysAndValues ...any) *Logger {
	return &Logger{kv: keysAndValues}
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	kv := make([]any, 0, len(l.kv)+len(keysAndValues))
	kv = append(kv, l.kv...)
	kv = append(kv, keysAndValues...)
	return &Logger{kv: kv}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	return global.Load().With(l.kv...)
}

func (l *Logger) Debug(format string, args ...any) { l.sugar().Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.sugar().Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.sugar().Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.sugar().Errorf(format, args...) }
