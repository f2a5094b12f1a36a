package api

import (
	"net/http"

	"github.com/hashicorp-forge/cms-gateway/internal/server"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
)

// ProviderSummary is the public view of a provider.
type ProviderSummary struct {
	ProviderID string `json:"providerId"`
	Name       string `json:"name"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Providers []ProviderSummary `json:"providers"`
}

// ProvidersResponse is the body of GET /api/v1/providers.
type ProvidersResponse struct {
	Providers []ProviderSummary `json:"providers"`
}

// HealthHandler serves GET /health.
func HealthHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "healthy",
			Providers: summarize(srv.Providers),
		})
	}
}

// ProvidersHandler serves GET /api/v1/providers.
func ProvidersHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ProvidersResponse{
			Providers: summarize(srv.Providers),
		})
	}
}

func summarize(reg *provider.Registry) []ProviderSummary {
	out := []ProviderSummary{}
	if reg == nil {
		return out
	}
	for _, p := range reg.All() {
		out = append(out, ProviderSummary{ProviderID: p.ID, Name: p.Name})
	}
	return out
}
