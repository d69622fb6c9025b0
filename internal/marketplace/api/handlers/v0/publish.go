package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
	"github.com/agenthub-dev/agenthub/pkg/models"
)

type PublishInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token" required:"false"`
	Body          struct {
		RepoURL string `json:"repoUrl" required:"true" doc:"GitHub repository URL" example:"https://github.com/acme/coding-agent"`
		Branch  string `json:"branch,omitempty" doc:"Branch to read from; defaults to the repository default branch"`
	}
}

type PublishOutput struct {
	Status int
	Body   models.PublishResult
}

type ValidateRepositoryInput struct {
	RepoURL string `query:"repoUrl" required:"true" doc:"GitHub repository URL to validate"`
	Branch  string `query:"branch" required:"false" doc:"Branch to read from"`
}

// RegisterPublishEndpoints registers the publish pipeline endpoints
func RegisterPublishEndpoints(api huma.API, svc service.MarketplaceService, authn auth.AuthnProvider) {
	huma.Register(api, huma.Operation{
		OperationID:   "publish-agent",
		Method:        http.MethodPost,
		Path:          "/v0/publish",
		Summary:       "Publish agent",
		Description:   "Validate a GitHub repository against the agent contract and create a listing",
		Tags:          []string{"publish"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *PublishInput) (*PublishOutput, error) {
		principal, err := authenticate(ctx, authn, input.Authorization)
		if err != nil {
			return nil, mapServiceError(err)
		}
		result, err := svc.Publish(ctx, principal.UserID, input.Body.RepoURL, input.Body.Branch)
		if err != nil {
			return nil, mapServiceError(err)
		}
		status := http.StatusCreated
		if result.Status == models.PublishStatusValidationFailed {
			status = http.StatusUnprocessableEntity
		}
		return &PublishOutput{Status: status, Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-repository",
		Method:      http.MethodGet,
		Path:        "/v0/publish/validate",
		Summary:     "Validate repository",
		Description: "Run the publish checks against a repository without creating a listing",
		Tags:        []string{"publish"},
	}, func(ctx context.Context, input *ValidateRepositoryInput) (*Response[service.ValidationReport], error) {
		report, err := svc.ValidateRepository(ctx, input.RepoURL, input.Branch)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[service.ValidationReport]{Body: *report}, nil
	})
}
