package log

import (
	"context"

	"go.uber.org/zap"

	"github.com/shelfwise/cataloger/pkg/requestid"
)

// StructuredLogger wraps a named zap logger and produces per-operation
// tracers that accumulate parameters before logging.
type StructuredLogger struct {
	logger *zap.SugaredLogger
	ctx    context.Context
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{logger: zap.S().Named(name)}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	return &StructuredLogger{logger: l.logger, ctx: ctx}
}

// Operation starts a tracer for a single logical operation.
func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	b := &OperationBuilder{logger: l.logger, operation: name}
	if l.ctx != nil {
		if id := requestid.FromContext(l.ctx); id != "" {
			b.fields = append(b.fields, "request_id", id)
		}
	}
	return b
}

type OperationBuilder struct {
	logger    *zap.SugaredLogger
	operation string
	fields    []any
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	return b.WithParam(key, value)
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	return b.WithParam(key, value)
}

func (b *OperationBuilder) Build() *OperationLogger {
	return &OperationLogger{
		logger:    b.logger,
		operation: b.operation,
		fields:    b.fields,
	}
}

// OperationLogger emits one line per Log call. Params added between calls are
// scoped to the next line; the operation params from the builder stick.
type OperationLogger struct {
	logger    *zap.SugaredLogger
	operation string
	fields    []any
	pending   []any
	err       error
	outcome   string
}

func (o *OperationLogger) WithParam(key string, value any) *OperationLogger {
	o.pending = append(o.pending, key, value)
	return o
}

func (o *OperationLogger) WithString(key, value string) *OperationLogger {
	return o.WithParam(key, value)
}

func (o *OperationLogger) WithInt(key string, value int) *OperationLogger {
	return o.WithParam(key, value)
}

func (o *OperationLogger) Step(name string) *OperationLogger {
	return o.WithParam("step", name)
}

func (o *OperationLogger) Error(err error) *OperationLogger {
	o.err = err
	o.outcome = "error"
	return o
}

func (o *OperationLogger) Success() *OperationLogger {
	o.outcome = "success"
	return o
}

func (o *OperationLogger) Log() {
	fields := append([]any{"operation", o.operation}, o.fields...)
	fields = append(fields, o.pending...)
	switch o.outcome {
	case "error":
		fields = append(fields, "error", o.err)
		o.logger.Errorw("operation failed", fields...)
	case "success":
		o.logger.Infow("operation succeeded", fields...)
	default:
		o.logger.Debugw("operation step", fields...)
	}
	o.pending = nil
	o.err = nil
	o.outcome = ""
}
