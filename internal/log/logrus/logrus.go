package logrus

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/droidpilot/droidpilot/internal/log"
)

type contextKey string

const contextLogValuesKey = contextKey("log-values")

type logger struct {
	*logrus.Entry
}

// NewLogrus returns a new log.Logger for a logrus implementation.
func NewLogrus(l *logrus.Entry) log.Logger {
	return logger{Entry: l}
}

func (l logger) WithValues(kv map[string]any) log.Logger {
	newLogger := l.Entry.WithFields(kv)
	return NewLogrus(newLogger)
}

func (l logger) WithCtxValues(ctx context.Context) log.Logger {
	values, _ := ctx.Value(contextLogValuesKey).(log.Kv)
	return l.WithValues(values)
}

func (l logger) SetValuesOnCtx(parent context.Context, values map[string]any) context.Context {
	// Maintain previous context values.
	if prev, ok := parent.Value(contextLogValuesKey).(log.Kv); ok {
		for k, v := range prev {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	return context.WithValue(parent, contextLogValuesKey, values)
}

func (l logger) Warningf(format string, args ...any) { l.Warnf(format, args...) }
