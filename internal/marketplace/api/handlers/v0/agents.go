package v0

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
	"github.com/agenthub-dev/agenthub/pkg/models"
)

type ListAgentsInput struct {
	Category      string `query:"category" doc:"Filter by category" required:"false"`
	Tags          string `query:"tags" doc:"Comma-separated tag filter; listings matching any tag are returned" required:"false"`
	Verified      bool   `query:"verified" doc:"Only verified listings" required:"false"`
	HasEvaluation bool   `query:"hasEvaluation" doc:"Only listings with an evaluation summary" required:"false"`
	Sort          string `query:"sort" doc:"Sort order" enum:"popular,newest,score" default:"score" required:"false"`
	Page          int    `query:"page" doc:"Page number, starting at 1" default:"1" required:"false"`
	Limit         int    `query:"limit" doc:"Page size, capped at 100" default:"20" required:"false"`
}

type GetAgentInput struct {
	Slug string `path:"slug" doc:"Agent slug" example:"coding-agent"`
}

type RecordUsageInput struct {
	Authorization string `header:"Authorization" doc:"Optional Bearer token identifying the user" required:"false"`
	Slug          string `path:"slug" doc:"Agent slug"`
	Body          struct {
		Action string `json:"action,omitempty" enum:"view,try,install" doc:"Usage action; defaults to view"`
	}
}

type FlagAgentInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token identifying the reporter" required:"false"`
	Slug          string `path:"slug" doc:"Agent slug"`
	Body          struct {
		Reason string `json:"reason,omitempty" enum:"spam,malicious,broken,license,other" doc:"Report reason; defaults to other"`
		Notes  string `json:"notes,omitempty" doc:"Free-form notes, truncated to 1000 characters"`
	}
}

type ReadmeExampleBody struct {
	Example string `json:"example" doc:"First fenced code block under the README usage heading, or empty"`
}

// RegisterAgentsEndpoints registers the listing read, usage and moderation endpoints
func RegisterAgentsEndpoints(api huma.API, svc service.MarketplaceService, authn auth.AuthnProvider) {
	huma.Register(api, huma.Operation{
		OperationID: "list-agents",
		Method:      http.MethodGet,
		Path:        "/v0/agents",
		Summary:     "List agents",
		Description: "List published agents with filtering, sorting and pagination",
		Tags:        []string{"agents"},
	}, func(ctx context.Context, input *ListAgentsInput) (*Response[models.AgentListResponse], error) {
		params := service.ListParams{
			Category:      input.Category,
			VerifiedOnly:  input.Verified,
			HasEvaluation: input.HasEvaluation,
			Sort:          database.Sort(input.Sort),
			Page:          input.Page,
			Limit:         input.Limit,
		}
		if input.Tags != "" {
			for _, tag := range strings.Split(input.Tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					params.Tags = append(params.Tags, tag)
				}
			}
		}
		resp, err := svc.ListAgents(ctx, params)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[models.AgentListResponse]{Body: *resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agent",
		Method:      http.MethodGet,
		Path:        "/v0/agents/{slug}",
		Summary:     "Get agent",
		Description: "Get a single agent listing by slug, including its moderation flags",
		Tags:        []string{"agents"},
	}, func(ctx context.Context, input *GetAgentInput) (*Response[models.AgentDetail], error) {
		detail, err := svc.GetAgentBySlug(ctx, input.Slug)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[models.AgentDetail]{Body: *detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-agent-usage",
		Method:      http.MethodPost,
		Path:        "/v0/agents/{slug}/usage",
		Summary:     "Record usage",
		Description: "Record a usage event (view, try or install) against a listing",
		Tags:        []string{"agents"},
	}, func(ctx context.Context, input *RecordUsageInput) (*Response[OKResponse], error) {
		userID := ""
		if authn != nil && input.Authorization != "" {
			// Usage events are accepted anonymously; a bad token is ignored.
			if principal, err := authn.Authenticate(ctx, input.Authorization); err == nil {
				userID = principal.UserID
			}
		}
		if err := svc.RecordUsage(ctx, input.Slug, userID, models.UsageAction(input.Body.Action)); err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[OKResponse]{Body: OKResponse{OK: true}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "flag-agent",
		Method:      http.MethodPost,
		Path:        "/v0/agents/{slug}/flag",
		Summary:     "Flag agent",
		Description: "File a moderation report against a listing",
		Tags:        []string{"agents"},
	}, func(ctx context.Context, input *FlagAgentInput) (*Response[OKResponse], error) {
		principal, err := authenticate(ctx, authn, input.Authorization)
		if err != nil {
			return nil, mapServiceError(err)
		}
		err = svc.FlagAgent(ctx, input.Slug, principal.UserID, models.FlagReason(input.Body.Reason), input.Body.Notes)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[OKResponse]{Body: OKResponse{OK: true}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agent-readme-example",
		Method:      http.MethodGet,
		Path:        "/v0/agents/{slug}/readme-example",
		Summary:     "README usage example",
		Description: "Extract the first fenced code block under the README usage section",
		Tags:        []string{"agents"},
	}, func(ctx context.Context, input *GetAgentInput) (*Response[ReadmeExampleBody], error) {
		example, err := svc.ReadmeExample(ctx, input.Slug)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &Response[ReadmeExampleBody]{Body: ReadmeExampleBody{Example: example}}, nil
	})
}

// authenticate resolves the Authorization header into a principal,
// returning auth.ErrUnauthenticated when no provider is configured or
// the token does not verify.
func authenticate(ctx context.Context, authn auth.AuthnProvider, authorization string) (*auth.Principal, error) {
	if authn == nil {
		return nil, auth.ErrUnauthenticated
	}
	return authn.Authenticate(ctx, authorization)
}
