package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const identityKey ctxKey = "identity"

// RequestIDMiddleware echoes the request id and puts a request-scoped logger
// into the context, tagged with the trace id when a span is active.
// It runs after chi's middleware.RequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = r.Header.Get(middleware.RequestIDHeader)
		}
		w.Header().Set(middleware.RequestIDHeader, requestID)

		l := logging.FromCtx(r.Context()).With("request_id", requestID)
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			l = l.With("trace_id", sc.TraceID().String())
		}
		next.ServeHTTP(w, r.WithContext(logging.WithCtx(r.Context(), l)))
	})
}

// MetricsMiddleware records request counts and latency per route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, path, http.StatusText(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// SessionAuth requires a valid bearer token and stores the caller's
// identity in the request context.
func SessionAuth(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := tokens.Parse(bearerToken(r))
			if err != nil {
				logging.FromCtx(r.Context()).Debug("rejected session token", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid session token")
				return
			}

			l := logging.FromCtx(r.Context()).With("session_id", id.SessionID)
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(logging.WithCtx(ctx, l)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func getIdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok && id.SessionID != ""
}
