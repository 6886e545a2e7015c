package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/audit"
	"golang.org/x/sync/semaphore"
)

// NewLimitMiddleware returns an HTTP middleware that lets at most workers
// requests reach next at once. Further requests wait for a free slot; a
// request whose context ends while waiting gets a 503 and next is never
// called. A non-positive workers value is treated as 1.
func NewLimitMiddleware(workers int64) func(http.Handler) http.Handler {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sem.Acquire(r.Context(), 1); err != nil {
				http.Error(w, "server busy", http.StatusServiceUnavailable)
				return
			}
			defer sem.Release(1)

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// NewAuditMiddleware returns an HTTP middleware that logs every request at
// debug level and, when auditLog is non-nil, appends an audit entry.
func NewAuditMiddleware(auditLog *audit.Logger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
				"remote", r.RemoteAddr,
			)
			if auditLog == nil {
				return
			}
			_ = auditLog.Log(audit.Entry{
				Timestamp: start,
				Source:    "http",
				Name:      r.URL.Path,
				Params:    map[string]any{"method": r.Method},
				Result:    "status " + strconv.Itoa(rec.status),
				Duration:  elapsed,
			})
		})
	}
}
