// Package router contains API routing logic
package router

import (
	"github.com/danielgtaylor/huma/v2"

	v0 "github.com/agenthub-dev/agenthub/internal/marketplace/api/handlers/v0"
	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/config"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
)

// RegisterRoutes registers all API routes.
// This is the single entry point for all route registration
func RegisterRoutes(
	api huma.API,
	cfg *config.Config,
	marketplace service.MarketplaceService,
	versionInfo v0.VersionBody,
	authnProvider auth.AuthnProvider,
) {
	v0.RegisterHealthEndpoint(api)
	v0.RegisterPingEndpoint(api)
	v0.RegisterVersionEndpoint(api, versionInfo)
	v0.RegisterAgentsEndpoints(api, marketplace, authnProvider)
	v0.RegisterPublishEndpoints(api, marketplace, authnProvider)
}
