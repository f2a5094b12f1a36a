package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/cms-gateway/internal/server"
	"github.com/hashicorp-forge/cms-gateway/pkg/query"
)

// RequestIDHeader carries the gateway request identifier back to the caller.
const RequestIDHeader = "X-Request-Id"

// CollectionHandler serves GET /api/v1/{collection}/{providerId}. Supported
// query parameters are page, limit, filter (JSON or bracket notation) and
// excludeNull.
func CollectionHandler(srv server.Server) http.HandlerFunc {
	logger := serverLogger(srv).Named("http")

	return func(w http.ResponseWriter, r *http.Request) {
		collection := pathParam(r, "collection")
		providerID := pathParam(r, "providerId")

		q := query.ParseQuery(r.URL.Query(), logger.With("collection", collection, "provider", providerID))

		res := srv.Gateway.Handle(r.Context(), collection, providerID, q)

		w.Header().Set(RequestIDHeader, res.RequestID)
		writeJSON(w, res.Kind.HTTPStatus(), res.Response)
	}
}

// pathParam returns the decoded route parameter. chi matches on RawPath when
// it is set, so only then is the value still escaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
