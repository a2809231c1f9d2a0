package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// WithRequestID stores id in ctx for StackTraceHandler to pick up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// StackTraceHandler is a handler that adds stack trace to error records
// and extracts request_id from context
type StackTraceHandler struct {
	slog.Handler
}

func (h *StackTraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
			r.AddAttrs(slog.String("request_id", reqID))
		}
	}

	if r.Level >= slog.LevelError {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		r.AddAttrs(slog.String("stack_trace", string(buf[:n])))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *StackTraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &StackTraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *StackTraceHandler) WithGroup(name string) slog.Handler {
	return &StackTraceHandler{Handler: h.Handler.WithGroup(name)}
}

// NewStructuredLogger builds the JSON logger writing to w.
func NewStructuredLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if level.Level() == slog.LevelDebug {
		opts.AddSource = true
	}

	return slog.New(&StackTraceHandler{Handler: slog.NewJSONHandler(w, opts)})
}

// InitStructuredLogger initialize structured logger
func InitStructuredLogger(level slog.Leveler) {
	slog.SetDefault(NewStructuredLogger(os.Stdout, level))
}
