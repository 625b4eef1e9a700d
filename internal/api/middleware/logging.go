package middleware

import (
	"net/http"
	"time"

	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
)

// LoggingMiddleware writes one access log line per request. The line
// carries the caller when the auth middleware resolved one.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		if ctx := observability.WithRequestFields(r.Context()); ctx != r.Context() {
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(rec, r)

		ctx := r.Context()

		logger := observability.LoggerFromContext(ctx)
		event := logger.Info()
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = logger.Error()
		case r.URL.Path == healthPath:
			event = logger.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote_ip", clientIP(r)).
			Msg("request")
	})
}
