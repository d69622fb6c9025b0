// Package database defines the persistence contract for marketplace
// listings and its PostgreSQL and in-memory implementations.
package database

import (
	"context"
	"errors"

	"github.com/agenthub-dev/agenthub/pkg/models"
)

// Common database errors
var (
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists signals the repo_url uniqueness constraint: no two
	// listings may share a source repository.
	ErrAlreadyExists = errors.New("an agent for this repository has already been published")
	// ErrSlugConflict signals a late collision on the slug uniqueness
	// constraint. Callers retry slug probing rather than failing.
	ErrSlugConflict = errors.New("slug already in use")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Sort orders for listing queries.
type Sort string

const (
	SortPopular Sort = "popular" // usageCount desc
	SortNewest  Sort = "newest"  // publishedAt desc
	SortScore   Sort = "score"   // aggregateScore desc
)

// AgentFilter defines filtering options for listing queries
type AgentFilter struct {
	Category      *string             // category equality
	VerifiedOnly  bool                // only verified listings
	HasEvaluation bool                // only listings with an evaluation summary
	Tags          []string            // tag intersection (any declared tag matches)
	Status        *models.AgentStatus // status equality (nil = no filter)
	Sort          Sort                // defaults to SortScore
}

// Database defines the interface for marketplace persistence operations
type Database interface {
	// CreateAgent inserts a new listing. The store's unique constraints on
	// slug and repo_url are the linearization point for concurrent
	// publishes; violations map to ErrSlugConflict and ErrAlreadyExists.
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	// GetAgentBySlug retrieves a listing by its slug
	GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error)
	// GetAgentByRepoURL retrieves a listing by its source repository URL
	GetAgentByRepoURL(ctx context.Context, repoURL string) (*models.Agent, error)
	// ListAgents retrieves listings matching filter with offset pagination,
	// returning the page of agents and the total match count
	ListAgents(ctx context.Context, filter *AgentFilter, page, limit int) ([]*models.Agent, int, error)
	// ListFlags retrieves all flags recorded against a listing
	ListFlags(ctx context.Context, agentID string) ([]*models.Flag, error)
	// AddFlag records a flag, increments the listing's flag count and marks
	// it flagged, returning the updated listing
	AddFlag(ctx context.Context, flag *models.Flag) (*models.Agent, error)
	// RecordUsage stores a usage event and increments the listing's usage
	// count, returning the updated listing
	RecordUsage(ctx context.Context, agentID, userID string, action models.UsageAction) (*models.Agent, error)
	// UpdateAgentScore stores a recomputed aggregate score
	UpdateAgentScore(ctx context.Context, agentID string, score float64) error
	// MaxUsageCount returns the highest usage count across published
	// listings, used as the usage normalization ceiling when rescoring
	MaxUsageCount(ctx context.Context) (int, error)
	// Close closes the database connection
	Close() error
}
