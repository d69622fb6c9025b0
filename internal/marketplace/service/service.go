// Package service implements the marketplace operations: the publish
// pipeline that turns a GitHub repository into a listing, and the read,
// usage and moderation flows around listings.
package service

import (
	"context"

	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
	"github.com/agenthub-dev/agenthub/pkg/models"
)

// RepositoryClient is the repository-content capability the publish
// pipeline consumes. Satisfied by *github.Client.
type RepositoryClient interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (*github.File, error)
	ResolveAgentFile(ctx context.Context, owner, repo, ref, filename string) (*github.File, error)
	FetchReadme(ctx context.Context, owner, repo, ref string) (*github.File, error)
}

// ListParams are the listing query parameters before clamping.
type ListParams struct {
	Category      string
	VerifiedOnly  bool
	HasEvaluation bool
	Tags          []string
	Sort          database.Sort
	Page          int
	Limit         int
}

// RepositoryInfo is the repository summary surfaced by the dry-run
// validation endpoint.
type RepositoryInfo struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	Branch        string `json:"branch"`
	DefaultBranch string `json:"defaultBranch"`
	HTMLURL       string `json:"htmlUrl"`
	Description   string `json:"description,omitempty"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	OpenIssues    int    `json:"openIssues"`
}

// ValidationReport is the outcome of validating a repository without
// persisting anything.
type ValidationReport struct {
	Repository RepositoryInfo              `json:"repository"`
	Metadata   *models.AgentMetadata       `json:"metadata"`
	Warnings   []string                    `json:"warnings"`
	Interface  models.InterfaceCheckResult `json:"interface"`
}

// MarketplaceService defines the interface for marketplace operations
type MarketplaceService interface {
	// Publish validates repoURL against the agent contract and persists a
	// new listing. An invalid interface check yields a validation_failed
	// result rather than an error.
	Publish(ctx context.Context, userID, repoURL, branch string) (*models.PublishResult, error)
	// ValidateRepository runs the same checks as Publish without persisting
	ValidateRepository(ctx context.Context, repoURL, branch string) (*ValidationReport, error)
	// ListAgents returns published listings with filtering and pagination
	ListAgents(ctx context.Context, params ListParams) (*models.AgentListResponse, error)
	// GetAgentBySlug returns a listing and its flags
	GetAgentBySlug(ctx context.Context, slug string) (*models.AgentDetail, error)
	// FlagAgent records a moderation report against a listing
	FlagAgent(ctx context.Context, slug, userID string, reason models.FlagReason, notes string) error
	// RecordUsage records a usage event against a listing
	RecordUsage(ctx context.Context, slug, userID string, action models.UsageAction) error
	// ReadmeExample extracts a usage snippet from the repository README;
	// best-effort, "" when none is found
	ReadmeExample(ctx context.Context, slug string) (string, error)
}
