package logging

import (
	"context"
	"fmt"
	"sync"
)

// LoggerFactory replaces the default logrus logger, for example to route
// pipeline logs into a host application's logger.
type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	loggerFactoryMu sync.RWMutex
	loggerFactory   LoggerFactory
)

func SetLoggerFactory(factory LoggerFactory) {
	loggerFactoryMu.Lock()
	defer loggerFactoryMu.Unlock()
	loggerFactory = factory
}

func GetLoggerFactory() LoggerFactory {
	loggerFactoryMu.RLock()
	defer loggerFactoryMu.RUnlock()
	return loggerFactory
}

type fieldsKey struct{}

// WithFields returns a context whose loggers carry the given key/value pairs.
// Keys must be strings; a trailing key without a value is dropped.
func WithFields(ctx context.Context, keyValues ...any) context.Context {
	merged := map[string]any{}
	for key, value := range Fields(ctx) {
		merged[key] = value
	}
	for i := 0; i+1 < len(keyValues); i += 2 {
		merged[fmt.Sprint(keyValues[i])] = keyValues[i+1]
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns the logger fields attached to ctx.
func Fields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	return fields
}
