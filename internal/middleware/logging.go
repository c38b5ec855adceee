// internal/middleware/logging.go
//
// Request id and access-log middleware.
//
// Context
// -------
// RequestID tags every request with a UUID (or the inbound X-Request-ID when
// it looks sane) and echoes it in the response.  AccessLog writes one zap
// line per request and feeds the HTTP Prometheus collectors.  It reads the
// client IP and UA from requestinfo, so mount it after that enricher.
//
// Notes
// -----
// • Path labels are never used on metrics; method and status code keep the
//   series count bounded.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/metrics"
	"github.com/yanizio/adept-auth/internal/requestinfo"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

type reqIDKey struct{}

// RequestID attaches a request id to the context and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), reqIDKey{}, id)))
	})
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}

// AccessLog logs each request through the global zap logger and records
// request metrics.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", GetRequestID(r.Context()),
		}
		if info := requestinfo.FromContext(r.Context()); info != nil {
			fields = append(fields,
				"ip", info.IP,
				"browser", info.UA.Browser,
				"bot", info.UA.IsBot,
			)
		}

		log := zap.S()
		switch {
		case status >= 500:
			log.Errorw("http request", fields...)
		case status >= 400:
			log.Warnw("http request", fields...)
		default:
			log.Infow("http request", fields...)
		}
	})
}
