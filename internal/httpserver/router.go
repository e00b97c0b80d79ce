package httpserver

import (
	"net/http"

	"github.com/dreamware/csync/internal/auth"
	"github.com/dreamware/csync/internal/handlers"
	"github.com/dreamware/csync/internal/metrics"
)

// newRouter builds the route table named in spec section 4.9. Every route
// but /v1/healthz and /v1/metrics runs through the auth pipeline first.
func newRouter(h *handlers.Handlers, pipeline *auth.Pipeline) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /v1/healthz", withMetrics("/v1/healthz", http.HandlerFunc(h.GetHealthz)))
	mux.Handle("GET /v1/metrics", withMetrics("/v1/metrics", metrics.Handler()))

	authed := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withMetrics(pattern, withAuth(pipeline, fn)))
	}

	authed("PUT /v1/blob", h.PutBlob)
	authed("GET /v1/blob", h.GetBlob)
	authed("PATCH /v1/blob", h.PatchBlob)
	authed("DELETE /v1/blob", h.DeleteBlob)

	authed("GET /v1/metadata", h.GetMetadata)

	authed("PUT /v1/user", h.PutUser)
	authed("GET /v1/user", h.GetUser)
	authed("PATCH /v1/user", h.PatchUser)
	authed("DELETE /v1/user", h.DeleteUser)

	authed("GET /v1/token", h.GetToken)

	mux.Handle("/", withMetrics("unmatched", http.HandlerFunc(noRoute)))

	return mux
}
