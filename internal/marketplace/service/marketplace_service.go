package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
	"github.com/agenthub-dev/agenthub/internal/marketplace/markdown"
	"github.com/agenthub-dev/agenthub/internal/marketplace/scoring"
	"github.com/agenthub-dev/agenthub/internal/marketplace/validation"
	"github.com/agenthub-dev/agenthub/pkg/models"
)

const (
	defaultBranch = "main"
	defaultLimit  = 20
	maxLimit      = 100
	maxNotesLen   = 1000

	// createRetries bounds republishing the slug probe after a late
	// unique-constraint collision with a concurrent publish.
	createRetries = 3
)

// marketplaceServiceImpl implements MarketplaceService over a Database and
// a repository-content client.
type marketplaceServiceImpl struct {
	db database.Database
	gh RepositoryClient
}

// NewMarketplaceService creates a new marketplace service
func NewMarketplaceService(db database.Database, gh RepositoryClient) MarketplaceService {
	return &marketplaceServiceImpl{db: db, gh: gh}
}

// repoValidation bundles everything fetched and checked during repository
// validation, shared between Publish and ValidateRepository.
type repoValidation struct {
	repository RepositoryInfo
	metadata   *models.AgentMetadata
	agentPy    *github.File
	agentYaml  *github.File
	readmeURL  string
	warnings   []string
	check      models.InterfaceCheckResult
}

func (s *marketplaceServiceImpl) validateRepository(ctx context.Context, repoURL, branch string) (*repoValidation, error) {
	fallback := branch
	if fallback == "" {
		fallback = defaultBranch
	}
	coordinates, err := github.ParseRepoURL(repoURL, fallback)
	if err != nil {
		return nil, err
	}

	repo, err := s.gh.GetRepository(ctx, coordinates.Owner, coordinates.Repo)
	if err != nil {
		return nil, err
	}

	// Explicit branch override wins; otherwise the remote default branch.
	ref := branch
	if ref == "" {
		ref = repo.DefaultBranch
	}
	if ref == "" {
		ref = defaultBranch
	}

	// agent.yaml and agent.py live in independent locations; fetch them
	// concurrently.
	var agentYaml, agentPy *github.File
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		agentYaml, err = s.gh.ResolveAgentFile(groupCtx, coordinates.Owner, coordinates.Repo, ref, "agent.yaml")
		return err
	})
	group.Go(func() error {
		var err error
		agentPy, err = s.gh.ResolveAgentFile(groupCtx, coordinates.Owner, coordinates.Repo, ref, "agent.py")
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if agentYaml == nil {
		return nil, &RequiredFileError{Filename: "agent.yaml"}
	}
	if agentPy == nil {
		return nil, &RequiredFileError{Filename: "agent.py"}
	}

	metadata, warnings, err := validation.ParseAgentMetadata(agentYaml.Content)
	if err != nil {
		return nil, err
	}

	check := validation.CheckPythonInterface(agentPy.Content)

	// README is evidence, not a requirement.
	readmeURL := ""
	readme, err := s.gh.FetchReadme(ctx, coordinates.Owner, coordinates.Repo, ref)
	if err != nil {
		log.Printf("best-effort README fetch failed for %s/%s: %v", coordinates.Owner, coordinates.Repo, err)
	} else if readme != nil {
		readmeURL = fmt.Sprintf("%s/blob/%s/%s", repo.HTMLURL, ref, readme.Path)
	}

	return &repoValidation{
		repository: RepositoryInfo{
			Owner:         coordinates.Owner,
			Repo:          coordinates.Repo,
			Branch:        ref,
			DefaultBranch: repo.DefaultBranch,
			HTMLURL:       repo.HTMLURL,
			Description:   repo.Description,
			Stars:         repo.Stars,
			Forks:         repo.Forks,
			OpenIssues:    repo.OpenIssues,
		},
		metadata:  metadata,
		agentPy:   agentPy,
		agentYaml: agentYaml,
		readmeURL: readmeURL,
		warnings:  warnings,
		check:     check,
	}, nil
}

// ValidateRepository runs the publish checks without persisting anything.
func (s *marketplaceServiceImpl) ValidateRepository(ctx context.Context, repoURL, branch string) (*ValidationReport, error) {
	result, err := s.validateRepository(ctx, repoURL, branch)
	if err != nil {
		return nil, err
	}
	return &ValidationReport{
		Repository: result.repository,
		Metadata:   result.metadata,
		Warnings:   append(append([]string{}, result.warnings...), result.check.Warnings...),
		Interface:  result.check,
	}, nil
}

// Publish runs the full pipeline: locate, fetch, validate, assign identity,
// score and persist.
func (s *marketplaceServiceImpl) Publish(ctx context.Context, userID, repoURL, branch string) (*models.PublishResult, error) {
	if userID == "" {
		return nil, auth.ErrUnauthenticated
	}

	// Cheap duplicate pre-check before any network traffic. The unique
	// constraint on repo_url remains the linearization point; the insert
	// below re-checks under it.
	if _, err := s.db.GetAgentByRepoURL(ctx, repoURL); err == nil {
		return nil, database.ErrAlreadyExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	result, err := s.validateRepository(ctx, repoURL, branch)
	if err != nil {
		return nil, err
	}

	warnings := append(append([]string{}, result.warnings...), result.check.Warnings...)
	if !result.check.IsValid {
		return &models.PublishResult{
			Status:   models.PublishStatusValidationFailed,
			Errors:   result.check.Errors,
			Warnings: warnings,
		}, nil
	}

	metadata := result.metadata
	disclosures := metadata.Disclosures
	if disclosures == nil {
		disclosures = map[string]bool{}
	}
	evaluationURL := ""
	if metadata.Evaluation != nil {
		evaluationURL = metadata.Evaluation.SummaryURL
	}
	readmeURL := result.readmeURL
	if readmeURL == "" && metadata.Documentation != nil {
		readmeURL = metadata.Documentation.URL
	}

	publishedAt := time.Now()
	score := scoring.AggregateScore(scoring.Input{
		UsageCount:           0,
		EvaluationSummaryURL: evaluationURL,
		DisclosureChecklist:  disclosures,
		HasValidInterface:    true,
		IsVerified:           true,
		PublishedAt:          &publishedAt,
	})

	agent := &models.Agent{
		Name:                 metadata.Name,
		Description:          metadata.Description,
		Version:              metadata.Version,
		Category:             metadata.Category,
		Tags:                 metadata.DeriveTags(),
		RepoURL:              repoURL,
		RepoOwner:            result.repository.Owner,
		RepoName:             result.repository.Repo,
		RepoBranch:           result.repository.Branch,
		AgentPyPath:          result.agentPy.Path,
		AgentYamlPath:        result.agentYaml.Path,
		HasValidInterface:    true,
		License:              metadata.License,
		ReadmeURL:            readmeURL,
		IsVerified:           true,
		VerificationStatus:   models.VerificationStatusVerified,
		DisclosureChecklist:  disclosures,
		EvaluationSummaryURL: evaluationURL,
		UsageCount:           0,
		AggregateScore:       score,
		Status:               models.AgentStatusPublished,
		PublishedAt:          &publishedAt,
		CreatorID:            userID,
	}

	created, err := s.createWithUniqueSlug(ctx, agent)
	if err != nil {
		return nil, err
	}

	return &models.PublishResult{
		Status:   models.PublishStatusPublished,
		Agent:    created,
		Warnings: warnings,
	}, nil
}

// createWithUniqueSlug probes for a free slug and inserts, retrying the
// probe when a concurrent publish takes the slug between probe and insert.
func (s *marketplaceServiceImpl) createWithUniqueSlug(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	for attempt := 0; attempt < createRetries; attempt++ {
		slug, err := s.uniqueSlug(ctx, agent.Name)
		if err != nil {
			return nil, err
		}
		agent.Slug = slug

		created, err := s.db.CreateAgent(ctx, agent)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, database.ErrSlugConflict) {
			log.Printf("slug %q taken by a concurrent publish, retrying", slug)
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not assign a unique slug for %q after %d attempts", agent.Name, createRetries)
}

// ListAgents returns published listings with filtering and pagination.
// Page is floored at 1 and limit clamped to [1,100].
func (s *marketplaceServiceImpl) ListAgents(ctx context.Context, params ListParams) (*models.AgentListResponse, error) {
	page := max(params.Page, 1)
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	published := models.AgentStatusPublished
	filter := &database.AgentFilter{
		VerifiedOnly:  params.VerifiedOnly,
		HasEvaluation: params.HasEvaluation,
		Tags:          params.Tags,
		Status:        &published,
		Sort:          params.Sort,
	}
	if params.Category != "" {
		filter.Category = &params.Category
	}

	agents, total, err := s.db.ListAgents(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.Agent, len(agents))
	for i, agent := range agents {
		items[i] = *agent
	}
	return &models.AgentListResponse{
		Agents: items,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}, nil
}

// GetAgentBySlug returns a listing and its flags
func (s *marketplaceServiceImpl) GetAgentBySlug(ctx context.Context, slug string) (*models.AgentDetail, error) {
	agent, err := s.db.GetAgentBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	flags, err := s.db.ListFlags(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	detail := &models.AgentDetail{Agent: *agent, Flags: make([]models.Flag, len(flags))}
	for i, flag := range flags {
		detail.Flags[i] = *flag
	}
	return detail, nil
}

// FlagAgent records a moderation report and rescores the listing with the
// same formula used at publish time.
func (s *marketplaceServiceImpl) FlagAgent(ctx context.Context, slug, userID string, reason models.FlagReason, notes string) error {
	if userID == "" {
		return auth.ErrUnauthenticated
	}
	if !models.ValidFlagReason(reason) {
		reason = models.FlagReasonOther
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLen {
		notes = notes[:maxNotesLen]
	}

	agent, err := s.db.GetAgentBySlug(ctx, slug)
	if err != nil {
		return err
	}

	updated, err := s.db.AddFlag(ctx, &models.Flag{
		AgentID: agent.ID,
		UserID:  userID,
		Reason:  reason,
		Notes:   notes,
	})
	if err != nil {
		return err
	}
	return s.rescore(ctx, updated)
}

// RecordUsage records a usage event and rescores the listing.
func (s *marketplaceServiceImpl) RecordUsage(ctx context.Context, slug, userID string, action models.UsageAction) error {
	switch action {
	case models.UsageActionView, models.UsageActionTry, models.UsageActionInstall:
	default:
		action = models.UsageActionView
	}

	agent, err := s.db.GetAgentBySlug(ctx, slug)
	if err != nil {
		return err
	}
	updated, err := s.db.RecordUsage(ctx, agent.ID, userID, action)
	if err != nil {
		return err
	}
	return s.rescore(ctx, updated)
}

// rescore recomputes the aggregate score after a usage or moderation
// change, normalizing usage against the current ceiling.
func (s *marketplaceServiceImpl) rescore(ctx context.Context, agent *models.Agent) error {
	maxUsage, err := s.db.MaxUsageCount(ctx)
	if err != nil {
		return err
	}
	score := scoring.AggregateScore(scoring.Input{
		UsageCount:           agent.UsageCount,
		MaxUsage:             maxUsage,
		EvaluationSummaryURL: agent.EvaluationSummaryURL,
		DisclosureChecklist:  agent.DisclosureChecklist,
		HasValidInterface:    agent.HasValidInterface,
		IsVerified:           agent.IsVerified,
		Featured:             agent.Featured,
		IsFlagged:            agent.IsFlagged,
		FlagCount:            agent.FlagCount,
		PublishedAt:          agent.PublishedAt,
	})
	return s.db.UpdateAgentScore(ctx, agent.ID, score)
}

// ReadmeExample extracts a usage snippet from the repository README.
func (s *marketplaceServiceImpl) ReadmeExample(ctx context.Context, slug string) (string, error) {
	agent, err := s.db.GetAgentBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	ref := agent.RepoBranch
	if ref == "" {
		ref = defaultBranch
	}
	readme, err := s.gh.FetchReadme(ctx, agent.RepoOwner, agent.RepoName, ref)
	if err != nil {
		log.Printf("best-effort README fetch failed for %s/%s: %v", agent.RepoOwner, agent.RepoName, err)
		return "", nil
	}
	if readme == nil {
		return "", nil
	}
	return markdown.ExtractUsageExample(readme.Content), nil
}
