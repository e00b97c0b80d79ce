package httpserver

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/auth"
	"github.com/dreamware/csync/internal/handlers"
	"github.com/dreamware/csync/internal/metrics"
)

// defaultMaxPayloadMiB is the request body cap used when Server.MaxPayloadBytes
// is left unset (spec section 4.9).
const defaultMaxPayloadMiB = 10

// statusRecorder captures the status code a handler wrote, defaulting to
// 200 for handlers that never call WriteHeader explicitly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics records csync_http_requests_total, labeled by route pattern
// and status class, for every request the mux dispatches.
func withMetrics(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		class := strconv.Itoa(rec.status/100) + "xx"
		metrics.HTTPRequestsTotal.WithLabelValues(route, class).Inc()
	})
}

// withPayloadCap wraps r.Body in an http.MaxBytesReader so an oversized
// body fails fast instead of exhausting memory (spec section 4.9).
func withPayloadCap(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// withAuth runs the auth pipeline (C5) against the Authorization header and
// the request's loopback status, then attaches the resulting principal to
// the request context for downstream handlers.
func withAuth(pipeline *auth.Pipeline, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := pipeline.Authenticate(r.Context(), r.Header.Get("Authorization"), isLoopback(r))
		if err != nil {
			handlers.WriteError(w, err)
			return
		}
		ctx := handlers.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isLoopback reports whether the request's remote address is 127.0.0.1,
// the only peer allowed to authenticate as "admin" (spec section 4.5).
func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.Equal(net.IPv4(127, 0, 0, 1))
}

// noRoute mirrors the original server's default_service: any unmatched
// path/method returns a 404 envelope instead of the stdlib's plain text.
func noRoute(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, apperr.NotFound("no route to %s %s", strings.ToUpper(r.Method), r.URL.Path))
}
