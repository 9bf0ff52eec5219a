package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/audit"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// ctxKeyRequestID is the context key for the request ID.
	ctxKeyRequestID contextKey = "request_id"
)

// maxRequestIDLength bounds client-supplied X-Request-ID values.
const maxRequestIDLength = 128

// requestIDMiddleware assigns a request ID to each request.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the ID assigned by requestIDMiddleware, or "".
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
// Gateway calls get their own outcome line; this one is debug level.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID(r.Context()),
		)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles Cross-Origin Resource Sharing headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	cors := s.cfg.API.CORS
	methods := joinOrDefault(cors.AllowedMethods, "GET, POST, OPTIONS")
	headers := joinOrDefault(cors.AllowedHeaders, "Content-Type, X-Request-ID, "+secretHeader)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// bodySizeLimit returns the body cap: room for the longest accepted
// query plus the rest of the payload, never below maxRequestBodySize.
func (s *Server) bodySizeLimit() int64 {
	limit := int64(maxRequestBodySize)
	// JSON escaping can grow each character up to six bytes (\uXXXX).
	if q := int64(s.cfg.Gateway.MaxQueryLength) * 6; q > limit {
		limit = q + maxRequestBodySize
	}
	return limit
}

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	limit := s.bodySizeLimit()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects clients that exceed their token bucket with
// 429 and a failure envelope. It is a no-op when rate limiting is off.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := access.ClientIP(r)
		if s.limiter.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		ev := audit.NewEvent(ip, audit.OutcomeRateLimited)
		ev.RequestID = requestID(r.Context())
		ev.Detail = []string{msgRateLimited}
		s.record(ev)

		w.Header().Set("Retry-After", fmt.Sprint(s.retryAfterSeconds()))
		writeJSON(w, http.StatusTooManyRequests, failure(msgRateLimited))
	})
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func (s *Server) retryAfterSeconds() int {
	rpm := s.cfg.Security.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		return 1
	}
	secs := (60 + rpm - 1) / rpm
	if secs < 1 {
		secs = 1
	}
	return secs
}

// isAllowedOrigin checks if the origin is in the allowed list.
// An empty list allows all origins.
func (s *Server) isAllowedOrigin(origin string) bool {
	if len(s.cfg.API.CORS.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.API.CORS.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// joinOrDefault joins a string slice with ", " or returns the default if empty.
func joinOrDefault(values []string, defaultVal string) string {
	if len(values) == 0 {
		return defaultVal
	}
	return strings.Join(values, ", ")
}

// secretHeader carries the shared secret on the read-only endpoints.
const secretHeader = "X-Sqlgate-Password"

// accessMiddleware applies the gateway's allow-lists to the read-only
// endpoints. The secret, when one is configured, comes from secretHeader.
func (s *Server) accessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Authorize(access.ClientIP(r)) {
			writeForbidden(w, msgIPRejected)
			return
		}
		if s.gate.SecretRequired() && !s.gate.CheckSecret(r.Header.Get(secretHeader)) {
			writeUnauthorized(w, msgInvalidSecret)
			return
		}
		next.ServeHTTP(w, r)
	})
}
