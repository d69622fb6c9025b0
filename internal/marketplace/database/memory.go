package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub-dev/agenthub/pkg/models"
)

// Memory is an in-memory implementation of the Database interface. It
// enforces the same slug and repo_url uniqueness guarantees as the
// PostgreSQL implementation and is used by tests and noop deployments.
type Memory struct {
	mu     sync.RWMutex
	agents map[string]*models.Agent // keyed by id
	flags  map[string][]*models.Flag
	usage  map[string][]models.UsageAction
}

// NewMemory creates an empty in-memory database
func NewMemory() *Memory {
	return &Memory{
		agents: make(map[string]*models.Agent),
		flags:  make(map[string][]*models.Flag),
		usage:  make(map[string][]models.UsageAction),
	}
}

func copyAgent(agent *models.Agent) *models.Agent {
	dup := *agent
	dup.Tags = append([]string(nil), agent.Tags...)
	dup.DisclosureChecklist = make(map[string]bool, len(agent.DisclosureChecklist))
	for k, v := range agent.DisclosureChecklist {
		dup.DisclosureChecklist[k] = v
	}
	if agent.PublishedAt != nil {
		publishedAt := *agent.PublishedAt
		dup.PublishedAt = &publishedAt
	}
	return &dup
}

// CreateAgent inserts a new listing, enforcing slug and repo_url uniqueness
func (db *Memory) CreateAgent(_ context.Context, agent *models.Agent) (*models.Agent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.agents {
		if existing.RepoURL == agent.RepoURL {
			return nil, ErrAlreadyExists
		}
		if existing.Slug == agent.Slug {
			return nil, ErrSlugConflict
		}
	}

	stored := copyAgent(agent)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	db.agents[stored.ID] = stored
	return copyAgent(stored), nil
}

// GetAgentBySlug retrieves a listing by its slug
func (db *Memory) GetAgentBySlug(_ context.Context, slug string) (*models.Agent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, agent := range db.agents {
		if agent.Slug == slug {
			return copyAgent(agent), nil
		}
	}
	return nil, ErrNotFound
}

// GetAgentByRepoURL retrieves a listing by its source repository URL
func (db *Memory) GetAgentByRepoURL(_ context.Context, repoURL string) (*models.Agent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, agent := range db.agents {
		if agent.RepoURL == repoURL {
			return copyAgent(agent), nil
		}
	}
	return nil, ErrNotFound
}

func matchesFilter(agent *models.Agent, filter *AgentFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Category != nil && agent.Category != *filter.Category {
		return false
	}
	if filter.VerifiedOnly && !agent.IsVerified {
		return false
	}
	if filter.HasEvaluation && agent.EvaluationSummaryURL == "" {
		return false
	}
	if filter.Status != nil && agent.Status != *filter.Status {
		return false
	}
	if len(filter.Tags) > 0 {
		declared := make(map[string]struct{}, len(agent.Tags))
		for _, tag := range agent.Tags {
			declared[tag] = struct{}{}
		}
		found := false
		for _, tag := range filter.Tags {
			if _, ok := declared[tag]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ListAgents retrieves listings matching filter with offset pagination
func (db *Memory) ListAgents(_ context.Context, filter *AgentFilter, page, limit int) ([]*models.Agent, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, ErrInvalidInput
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	var matched []*models.Agent
	for _, agent := range db.agents {
		if matchesFilter(agent, filter) {
			matched = append(matched, agent)
		}
	}

	sortKey := SortScore
	if filter != nil && filter.Sort != "" {
		sortKey = filter.Sort
	}
	sort.SliceStable(matched, func(i, j int) bool {
		switch sortKey {
		case SortPopular:
			return matched[i].UsageCount > matched[j].UsageCount
		case SortNewest:
			left, right := matched[i].PublishedAt, matched[j].PublishedAt
			if left == nil {
				return false
			}
			if right == nil {
				return true
			}
			return left.After(*right)
		default:
			return matched[i].AggregateScore > matched[j].AggregateScore
		}
	})

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	agents := make([]*models.Agent, 0, end-start)
	for _, agent := range matched[start:end] {
		agents = append(agents, copyAgent(agent))
	}
	return agents, total, nil
}

// ListFlags retrieves all flags recorded against a listing
func (db *Memory) ListFlags(_ context.Context, agentID string) ([]*models.Flag, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	flags := make([]*models.Flag, 0, len(db.flags[agentID]))
	for _, flag := range db.flags[agentID] {
		dup := *flag
		flags = append(flags, &dup)
	}
	return flags, nil
}

// AddFlag records a flag and bumps the listing's moderation counters
func (db *Memory) AddFlag(_ context.Context, flag *models.Flag) (*models.Agent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	agent, ok := db.agents[flag.AgentID]
	if !ok {
		return nil, ErrNotFound
	}

	stored := *flag
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now()
	db.flags[flag.AgentID] = append(db.flags[flag.AgentID], &stored)

	agent.FlagCount++
	agent.IsFlagged = true
	agent.UpdatedAt = time.Now()
	return copyAgent(agent), nil
}

// RecordUsage stores a usage event and increments the listing's usage count
func (db *Memory) RecordUsage(_ context.Context, agentID, _ string, action models.UsageAction) (*models.Agent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	agent, ok := db.agents[agentID]
	if !ok {
		return nil, ErrNotFound
	}
	db.usage[agentID] = append(db.usage[agentID], action)
	agent.UsageCount++
	agent.UpdatedAt = time.Now()
	return copyAgent(agent), nil
}

// UpdateAgentScore stores a recomputed aggregate score
func (db *Memory) UpdateAgentScore(_ context.Context, agentID string, score float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	agent, ok := db.agents[agentID]
	if !ok {
		return ErrNotFound
	}
	agent.AggregateScore = score
	agent.UpdatedAt = time.Now()
	return nil
}

// MaxUsageCount returns the highest usage count across published listings
func (db *Memory) MaxUsageCount(_ context.Context) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	maxUsage := 0
	for _, agent := range db.agents {
		if agent.Status == models.AgentStatusPublished && agent.UsageCount > maxUsage {
			maxUsage = agent.UsageCount
		}
	}
	return maxUsage, nil
}

// Close is a no-op for the in-memory database
func (db *Memory) Close() error {
	return nil
}
