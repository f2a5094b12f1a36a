package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cms-gateway/internal/server"
	"github.com/hashicorp-forge/cms-gateway/pkg/envelope"
)

// NewRouter builds the inbound HTTP surface.
//
// Routes:
//
//	GET /health                              - Liveness and provider listing
//	GET /api/v1/providers                    - Provider listing
//	GET /api/v1/{collection}/{providerId}    - Collection query
func NewRouter(srv server.Server) http.Handler {
	srv.Logger = serverLogger(srv)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Logging(srv.Logger.Named("http")))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope.Fail("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope.Fail("Method not allowed"))
	})

	r.Get("/health", HealthHandler(srv))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", ProvidersHandler(srv))
		r.Get("/{collection}/{providerId}", CollectionHandler(srv))
	})

	return r
}

func serverLogger(srv server.Server) hclog.Logger {
	if srv.Logger == nil {
		return hclog.NewNullLogger()
	}
	return srv.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are gone at this point; a failed write only means the client left.
	_ = json.NewEncoder(w).Encode(v)
}
