package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status of the API"`
}

type PingBody struct {
	Pong string `json:"pong" example:"pong" doc:"Ping response"`
}

type VersionBody struct {
	Version   string `json:"version" doc:"Service version"`
	GitCommit string `json:"git_commit,omitempty" doc:"Git commit hash of the build"`
	BuildDate string `json:"build_date,omitempty" doc:"Build timestamp"`
}

// RegisterHealthEndpoint registers the health check endpoint
func RegisterHealthEndpoint(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/v0/health",
		Summary:     "Health check",
		Description: "Check the health of the API server",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*Response[HealthBody], error) {
		return &Response[HealthBody]{Body: HealthBody{Status: "ok"}}, nil
	})
}

// RegisterPingEndpoint registers the ping endpoint
func RegisterPingEndpoint(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/v0/ping",
		Summary:     "Ping",
		Description: "Simple ping endpoint for liveness checks",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*Response[PingBody], error) {
		return &Response[PingBody]{Body: PingBody{Pong: "pong"}}, nil
	})
}

// RegisterVersionEndpoint registers the version endpoint
func RegisterVersionEndpoint(api huma.API, version VersionBody) {
	huma.Register(api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/v0/version",
		Summary:     "Version",
		Description: "Report the running service version",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*Response[VersionBody], error) {
		return &Response[VersionBody]{Body: version}, nil
	})
}
