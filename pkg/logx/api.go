package logx

import (
	"context"
	"fmt"
	"io"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ContextWithRequestID stores a request id that WithContext entries pick up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

var defaultLogger = NewLogger(LoadFromEnv())

func SetDefaultLogger(l *Logger) { defaultLogger = l }
func GetDefaultLogger() *Logger  { return defaultLogger }
func SetLevel(level Level)       { defaultLogger.SetLevel(level) }
func SetOutput(w io.Writer)      { defaultLogger.SetOutput(w) }

func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil, nil) }
func Info(msg string)  { defaultLogger.log(LevelInfo, msg, nil, nil) }
func Warn(msg string)  { defaultLogger.log(LevelWarn, msg, nil, nil) }
func Error(msg string) { defaultLogger.log(LevelError, msg, nil, nil) }

func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil, nil)
	defaultLogger.exitFunc(1)
}

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }
func Fatalf(format string, args ...any) { Fatal(fmt.Sprintf(format, args...)) }

func WithFields(fields Fields) *Entry         { return defaultLogger.WithFields(fields) }
func WithField(key string, value any) *Entry  { return defaultLogger.WithField(key, value) }
func WithError(err error) *Entry              { return defaultLogger.WithError(err) }
func WithContext(ctx context.Context) *Entry  { return newEntry(defaultLogger).WithContext(ctx) }
