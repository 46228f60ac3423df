package log

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	loggerNameAttributeKey  = "logger"
	loggerLevelAttributeKey = "level"
)

var (
	debugAttr = attribute.String(loggerLevelAttributeKey, "debug")
	infoAttr  = attribute.String(loggerLevelAttributeKey, "info")
	warnAttr  = attribute.String(loggerLevelAttributeKey, "warn")
	errorAttr = attribute.String(loggerLevelAttributeKey, "error")
)

// Logger writes structured logs through zap. The C-suffixed methods also
// attach the record as an event on the span found in the context, so that
// logs emitted inside traced work travel with the trace.
type Logger struct {
	z        *zap.Logger
	nameAttr attribute.KeyValue
	attrs    []attribute.KeyValue
}

func New(opts ...Option) (*Logger, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Logger{z: newZapLogger(cfg)}, nil
}

// Zap returns the underlying zap logger.
func (log *Logger) Zap() *zap.Logger {
	return log.z
}

func (log *Logger) Sync() error {
	return log.z.Sync()
}

func (log *Logger) Named(name string) *Logger {
	if name == "" {
		return log
	}
	oldName := log.nameAttr.Value.AsString()
	newName := name
	if oldName != "" {
		newName = strings.Join([]string{oldName, name}, ".")
	}
	return &Logger{
		z:        log.z.Named(name),
		nameAttr: attribute.String(loggerNameAttributeKey, newName),
		attrs:    log.attrs,
	}
}

func (log *Logger) With(fields ...zap.Field) *Logger {
	newAttrs := make([]attribute.KeyValue, len(log.attrs), len(log.attrs)+len(fields))
	copy(newAttrs, log.attrs)
	newAttrs = appendAttributesByFields(newAttrs, fields...)
	return &Logger{z: log.z.With(fields...), nameAttr: log.nameAttr, attrs: newAttrs}
}

func (log *Logger) Debug(msg string, fields ...zap.Field) {
	log.z.Debug(msg, fields...)
}

func (log *Logger) DebugC(ctx context.Context, msg string, fields ...zap.Field) {
	log.setAttributesToSpan(ctx, msg, debugAttr, fields...)
	log.z.Debug(msg, fields...)
}

func (log *Logger) Info(msg string, fields ...zap.Field) {
	log.z.Info(msg, fields...)
}

func (log *Logger) InfoC(ctx context.Context, msg string, fields ...zap.Field) {
	log.setAttributesToSpan(ctx, msg, infoAttr, fields...)
	log.z.Info(msg, fields...)
}

func (log *Logger) Warn(msg string, fields ...zap.Field) {
	log.z.Warn(msg, fields...)
}

func (log *Logger) WarnC(ctx context.Context, msg string, fields ...zap.Field) {
	log.setAttributesToSpan(ctx, msg, warnAttr, fields...)
	log.z.Warn(msg, fields...)
}

func (log *Logger) Error(msg string, fields ...zap.Field) {
	log.z.Error(msg, fields...)
}

func (log *Logger) ErrorC(ctx context.Context, msg string, fields ...zap.Field) {
	log.setAttributesToSpan(ctx, msg, errorAttr, fields...)
	log.z.Error(msg, fields...)
}

func (log *Logger) setAttributesToSpan(ctx context.Context, msg string, lvl attribute.KeyValue, fields ...zap.Field) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(log.attrs)+len(fields)+2)
	attrs = append(attrs, lvl)
	if log.nameAttr.Value.AsString() != "" {
		attrs = append(attrs, log.nameAttr)
	}
	attrs = append(attrs, log.attrs...)
	attrs = appendAttributesByFields(attrs, fields...)
	span.AddEvent(msg, trace.WithAttributes(attrs...))
}
