package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cms-gateway/internal/gateway"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
)

// Server contains the dependencies shared by the HTTP handlers.
type Server struct {
	// Gateway resolves collection queries.
	Gateway *gateway.Gateway

	// Providers is the loaded provider registry. Only identifiers and display
	// names are ever exposed through the API.
	Providers *provider.Registry

	// Logger is the logger for the server.
	Logger hclog.Logger
}
