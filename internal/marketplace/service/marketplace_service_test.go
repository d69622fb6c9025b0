package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
	"github.com/agenthub-dev/agenthub/pkg/models"
)

const testAgentYaml = `
name: Coding Agent
version: 1.0.0
description: Generates code from natural-language prompts
category: coding
tags: [python, codegen]
license: MIT
evaluation:
  summaryUrl: https://example.com/eval
disclosures:
  data_handling: true
  model_usage: true
interface:
  methods:
    run:
      description: Run the agent against a prompt
      parameters:
        prompt:
          type: string
`

const testAgentPy = `
import json
import sys

if __name__ == "__main__":
    payload = json.loads(sys.argv[1])
    print(json.dumps(payload))
`

// fakeRepoClient serves repository content from in-memory maps in place of
// the GitHub API.
type fakeRepoClient struct {
	repo    *github.Repository
	repoErr error
	files   map[string]string // path -> content
}

func newFakeRepoClient() *fakeRepoClient {
	return &fakeRepoClient{
		repo: &github.Repository{
			DefaultBranch: "main",
			HTMLURL:       "https://github.com/acme/coding-agent",
			Description:   "a coding agent",
		},
		files: map[string]string{
			"agent.yaml": testAgentYaml,
			"agent.py":   testAgentPy,
		},
	}
}

func (f *fakeRepoClient) GetRepository(_ context.Context, _, _ string) (*github.Repository, error) {
	if f.repoErr != nil {
		return nil, f.repoErr
	}
	return f.repo, nil
}

func (f *fakeRepoClient) GetFileContent(_ context.Context, _, _, path, _ string) (*github.File, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, nil
	}
	return &github.File{Path: path, Content: content}, nil
}

func (f *fakeRepoClient) ResolveAgentFile(ctx context.Context, owner, repo, ref, filename string) (*github.File, error) {
	for _, prefix := range []string{"", "src/", "agents/"} {
		file, err := f.GetFileContent(ctx, owner, repo, prefix+filename, ref)
		if err != nil || file != nil {
			return file, err
		}
	}
	return nil, nil
}

func (f *fakeRepoClient) FetchReadme(ctx context.Context, owner, repo, ref string) (*github.File, error) {
	return f.GetFileContent(ctx, owner, repo, "README.md", ref)
}

func newTestService(t *testing.T) (service.MarketplaceService, *database.Memory, *fakeRepoClient) {
	t.Helper()
	db := database.NewMemory()
	gh := newFakeRepoClient()
	return service.NewMarketplaceService(db, gh), db, gh
}

func TestPublishSuccess(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	require.Equal(t, models.PublishStatusPublished, result.Status)
	require.NotNil(t, result.Agent)

	agent := result.Agent
	assert.Equal(t, "coding-agent", agent.Slug)
	assert.Equal(t, "Coding Agent", agent.Name)
	assert.Equal(t, "1.0.0", agent.Version)
	assert.Equal(t, "acme", agent.RepoOwner)
	assert.Equal(t, "coding-agent", agent.RepoName)
	assert.Equal(t, "main", agent.RepoBranch)
	assert.Equal(t, []string{"python", "codegen", "coding"}, agent.Tags)
	assert.True(t, agent.HasValidInterface)
	assert.True(t, agent.IsVerified)
	assert.Equal(t, models.AgentStatusPublished, agent.Status)
	assert.Equal(t, "user-1", agent.CreatorID)
	require.NotNil(t, agent.PublishedAt)

	// 20 verified + 15 interface + 15 evaluation + 10 disclosures - 5 new
	assert.InDelta(t, 55, agent.AggregateScore, 1e-9)
}

func TestPublishRequiresUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Publish(context.Background(), "", "https://github.com/acme/coding-agent", "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestPublishDuplicateRepo(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	_, err = svc.Publish(ctx, "user-2", "https://github.com/acme/coding-agent", "")
	require.ErrorIs(t, err, database.ErrAlreadyExists)
}

func TestPublishNameCollisionGetsSuffixedSlug(t *testing.T) {
	svc, _, gh := newTestService(t)
	ctx := context.Background()

	first, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	assert.Equal(t, "coding-agent", first.Agent.Slug)

	// Same agent name from a different repository.
	gh.repo.HTMLURL = "https://github.com/other/coding-agent"
	second, err := svc.Publish(ctx, "user-2", "https://github.com/other/coding-agent", "")
	require.NoError(t, err)
	assert.Equal(t, "coding-agent-1", second.Agent.Slug)
}

func TestPublishInvalidRepoURL(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Publish(context.Background(), "user-1", "https://example.com/acme/agent", "")
	require.ErrorIs(t, err, github.ErrInvalidRepoURL)
}

func TestPublishRepositoryNotFound(t *testing.T) {
	svc, _, gh := newTestService(t)
	gh.repoErr = fmt.Errorf("%w: acme/missing", github.ErrRepositoryNotFound)

	_, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/missing", "")
	require.ErrorIs(t, err, github.ErrRepositoryNotFound)
}

func TestPublishMissingAgentYaml(t *testing.T) {
	svc, _, gh := newTestService(t)
	delete(gh.files, "agent.yaml")

	_, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/coding-agent", "")
	var fileErr *service.RequiredFileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "agent.yaml", fileErr.Filename)
}

func TestPublishAgentPyInNestedLocation(t *testing.T) {
	svc, _, gh := newTestService(t)
	delete(gh.files, "agent.py")
	gh.files["src/agent.py"] = testAgentPy

	result, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	assert.Equal(t, "src/agent.py", result.Agent.AgentPyPath)
}

func TestPublishInvalidInterfaceReturnsResult(t *testing.T) {
	svc, db, gh := newTestService(t)
	gh.files["agent.py"] = "def run():\n    pass\n"

	result, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	assert.Equal(t, models.PublishStatusValidationFailed, result.Status)
	assert.Nil(t, result.Agent)
	assert.NotEmpty(t, result.Errors)

	// Nothing persisted on a failed validation.
	_, _, listErr := db.ListAgents(context.Background(), nil, 1, 10)
	require.NoError(t, listErr)
	_, getErr := db.GetAgentByRepoURL(context.Background(), "https://github.com/acme/coding-agent")
	require.ErrorIs(t, getErr, database.ErrNotFound)
}

func TestPublishExplicitBranchWinsOverDefault(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Publish(context.Background(), "user-1", "https://github.com/acme/coding-agent", "develop")
	require.NoError(t, err)
	assert.Equal(t, "develop", result.Agent.RepoBranch)
}

func TestValidateRepositoryDoesNotPersist(t *testing.T) {
	svc, db, _ := newTestService(t)

	report, err := svc.ValidateRepository(context.Background(), "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	assert.Equal(t, "acme", report.Repository.Owner)
	assert.Equal(t, "main", report.Repository.Branch)
	assert.True(t, report.Interface.IsValid)
	require.NotNil(t, report.Metadata)
	assert.Equal(t, "Coding Agent", report.Metadata.Name)

	_, err = db.GetAgentByRepoURL(context.Background(), "https://github.com/acme/coding-agent")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestListAgentsFiltersAndPagination(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	publishedAt := time.Now().Add(-30 * 24 * time.Hour)
	for i := 0; i < 25; i++ {
		category := "coding"
		if i%2 == 1 {
			category = "research"
		}
		at := publishedAt.Add(time.Duration(i) * time.Hour)
		_, err := db.CreateAgent(ctx, &models.Agent{
			Slug:        fmt.Sprintf("agent-%d", i),
			Name:        fmt.Sprintf("Agent %d", i),
			Category:    category,
			Tags:        []string{category},
			RepoURL:     fmt.Sprintf("https://github.com/acme/agent-%d", i),
			Status:      models.AgentStatusPublished,
			UsageCount:  i,
			PublishedAt: &at,
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListAgents(ctx, service.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Len(t, resp.Agents, 20)

	resp, err = svc.ListAgents(ctx, service.ListParams{Page: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Agents, 5)

	resp, err = svc.ListAgents(ctx, service.ListParams{Category: "coding"})
	require.NoError(t, err)
	assert.Equal(t, 13, resp.Total)

	resp, err = svc.ListAgents(ctx, service.ListParams{Tags: []string{"research"}})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Total)

	resp, err = svc.ListAgents(ctx, service.ListParams{Sort: database.SortPopular, Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Agents, 1)
	assert.Equal(t, 24, resp.Agents[0].UsageCount)

	resp, err = svc.ListAgents(ctx, service.ListParams{Sort: database.SortNewest, Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Agents, 1)
	assert.Equal(t, "agent-24", resp.Agents[0].Slug)
}

func TestListAgentsClampsLimit(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.ListAgents(context.Background(), service.ListParams{Page: -3, Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 100, resp.Limit)
}

func TestRecordUsageRescores(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	before := result.Agent.AggregateScore

	require.NoError(t, svc.RecordUsage(ctx, "coding-agent", "user-2", models.UsageActionInstall))

	detail, err := svc.GetAgentBySlug(ctx, "coding-agent")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Agent.UsageCount)
	// Sole listing, so its usage is the ceiling: full usage points.
	assert.InDelta(t, before+25, detail.Agent.AggregateScore, 1e-9)
}

func TestRecordUsageUnknownActionDefaultsToView(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	require.NoError(t, svc.RecordUsage(ctx, "coding-agent", "", models.UsageAction("launch")))

	detail, err := svc.GetAgentBySlug(ctx, "coding-agent")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Agent.UsageCount)
}

func TestFlagAgent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)
	before := result.Agent.AggregateScore

	err = svc.FlagAgent(ctx, "coding-agent", "user-2", models.FlagReasonSpam, "  repeated listing  ")
	require.NoError(t, err)

	detail, err := svc.GetAgentBySlug(ctx, "coding-agent")
	require.NoError(t, err)
	assert.True(t, detail.Agent.IsFlagged)
	assert.Equal(t, 1, detail.Agent.FlagCount)
	require.Len(t, detail.Flags, 1)
	assert.Equal(t, models.FlagReasonSpam, detail.Flags[0].Reason)
	assert.Equal(t, "repeated listing", detail.Flags[0].Notes)

	// 50 flagged penalty + 5 per flag overwhelm the pre-flag score.
	assert.Less(t, detail.Agent.AggregateScore, before)
	assert.InDelta(t, 0, detail.Agent.AggregateScore, 1e-9)
}

func TestFlagAgentRequiresUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.FlagAgent(context.Background(), "coding-agent", "", models.FlagReasonSpam, "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestFlagAgentUnknownReasonDefaultsToOther(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	require.NoError(t, svc.FlagAgent(ctx, "coding-agent", "user-2", models.FlagReason("bogus"), ""))

	detail, err := svc.GetAgentBySlug(ctx, "coding-agent")
	require.NoError(t, err)
	require.Len(t, detail.Flags, 1)
	assert.Equal(t, models.FlagReasonOther, detail.Flags[0].Reason)
}

func TestFlagAgentTruncatesNotes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	long := make([]byte, 1500)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, svc.FlagAgent(ctx, "coding-agent", "user-2", models.FlagReasonOther, string(long)))

	detail, err := svc.GetAgentBySlug(ctx, "coding-agent")
	require.NoError(t, err)
	require.Len(t, detail.Flags, 1)
	assert.Len(t, detail.Flags[0].Notes, 1000)
}

func TestGetAgentBySlugNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetAgentBySlug(context.Background(), "nope")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestReadmeExample(t *testing.T) {
	svc, _, gh := newTestService(t)
	ctx := context.Background()

	gh.files["README.md"] = "# Coding Agent\n\n## Usage\n\n```bash\npython agent.py '{}'\n```\n"

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	example, err := svc.ReadmeExample(ctx, "coding-agent")
	require.NoError(t, err)
	assert.Equal(t, "python agent.py '{}'", example)
}

func TestReadmeExampleMissingReadme(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "user-1", "https://github.com/acme/coding-agent", "")
	require.NoError(t, err)

	example, err := svc.ReadmeExample(ctx, "coding-agent")
	require.NoError(t, err)
	assert.Empty(t, example)
}
