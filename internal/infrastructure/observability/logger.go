package observability

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger sets the global logger for the API process. Development gets a
// console writer; every other env logs JSON with caller information.
func InitLogger(serviceName, env, level string) {
	log.Logger = NewLogger(os.Stdout, serviceName, env, level)
}

// NewLogger builds the logger InitLogger installs, writing to w.
func NewLogger(w io.Writer, serviceName, env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

type logFieldsKey struct{}

// requestFields collects values learned while a request is handled, such as
// the caller resolved by the auth middleware, so outer middleware can log them.
type requestFields struct {
	mu     sync.Mutex
	userID string
	role   string
}

// WithRequestFields attaches an empty field set to ctx. Middleware that runs
// before authentication calls it so it can read the caller afterwards.
func WithRequestFields(ctx context.Context) context.Context {
	if _, ok := ctx.Value(logFieldsKey{}).(*requestFields); ok {
		return ctx
	}
	return context.WithValue(ctx, logFieldsKey{}, &requestFields{})
}

// AnnotateUser records the authenticated caller on the request's field set.
// It does nothing when ctx carries none.
func AnnotateUser(ctx context.Context, userID, role string) {
	fields, ok := ctx.Value(logFieldsKey{}).(*requestFields)
	if !ok {
		return
	}
	fields.mu.Lock()
	fields.userID = userID
	fields.role = role
	fields.mu.Unlock()
}

// RequestUser returns the caller recorded by AnnotateUser, if any.
func RequestUser(ctx context.Context) (userID, role string) {
	fields, ok := ctx.Value(logFieldsKey{}).(*requestFields)
	if !ok {
		return "", ""
	}
	fields.mu.Lock()
	defer fields.mu.Unlock()
	return fields.userID, fields.role
}

// LoggerFromContext returns the global logger decorated with the trace ids
// and the caller of the request carried by ctx.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	builder := log.With()

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		builder = builder.
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String())
	}
	if userID, role := RequestUser(ctx); userID != "" {
		builder = builder.Str("user_id", userID).Str("role", role)
	}

	logger := builder.Logger()
	return &logger
}
