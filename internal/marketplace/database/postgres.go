package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthub-dev/agenthub/pkg/models"
)

// PostgreSQL is an implementation of the Database interface using PostgreSQL
type PostgreSQL struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL creates a new instance of the PostgreSQL database
func NewPostgreSQL(ctx context.Context, connectionURI string) (*PostgreSQL, error) {
	config, err := pgxpool.ParseConfig(connectionURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Configure pool for stability-focused defaults
	config.MaxConns = 30
	config.MinConns = 5
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = 2 * time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		version TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		repo_url TEXT NOT NULL,
		repo_owner TEXT NOT NULL,
		repo_name TEXT NOT NULL,
		repo_branch TEXT NOT NULL,
		agent_py_path TEXT NOT NULL,
		agent_yaml_path TEXT NOT NULL,
		has_valid_interface BOOLEAN NOT NULL DEFAULT FALSE,
		license TEXT NOT NULL DEFAULT '',
		readme_url TEXT NOT NULL DEFAULT '',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_status TEXT NOT NULL DEFAULT 'unverified',
		disclosure_checklist JSONB NOT NULL DEFAULT '{}',
		evaluation_summary_url TEXT NOT NULL DEFAULT '',
		usage_count INTEGER NOT NULL DEFAULT 0,
		aggregate_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		is_flagged BOOLEAN NOT NULL DEFAULT FALSE,
		flag_count INTEGER NOT NULL DEFAULT 0,
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		creator_id TEXT NOT NULL,
		CONSTRAINT agents_slug_key UNIQUE (slug),
		CONSTRAINT agents_repo_url_key UNIQUE (repo_url)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_status ON agents (status)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_category ON agents (category)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_tags ON agents USING GIN (tags)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_aggregate_score ON agents (aggregate_score DESC)`,
	`CREATE TABLE IF NOT EXISTS agent_flags (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		agent_id UUID NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_flags_agent_id ON agent_flags (agent_id)`,
	`CREATE TABLE IF NOT EXISTS agent_usage_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		agent_id UUID NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL DEFAULT 'view',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_usage_events_agent_id ON agent_usage_events (agent_id)`,
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migrations: %w", err)
	}
	defer conn.Release()

	for _, stmt := range migrations {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const agentColumns = `id, slug, name, description, version, category, tags,
	repo_url, repo_owner, repo_name, repo_branch, agent_py_path, agent_yaml_path,
	has_valid_interface, license, readme_url, is_verified, verification_status,
	disclosure_checklist, evaluation_summary_url, usage_count, aggregate_score,
	status, featured, is_flagged, flag_count, published_at, created_at, updated_at, creator_id`

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var agent models.Agent
	var checklistJSON []byte
	err := row.Scan(
		&agent.ID, &agent.Slug, &agent.Name, &agent.Description, &agent.Version,
		&agent.Category, &agent.Tags,
		&agent.RepoURL, &agent.RepoOwner, &agent.RepoName, &agent.RepoBranch,
		&agent.AgentPyPath, &agent.AgentYamlPath,
		&agent.HasValidInterface, &agent.License, &agent.ReadmeURL,
		&agent.IsVerified, &agent.VerificationStatus,
		&checklistJSON, &agent.EvaluationSummaryURL,
		&agent.UsageCount, &agent.AggregateScore,
		&agent.Status, &agent.Featured, &agent.IsFlagged, &agent.FlagCount,
		&agent.PublishedAt, &agent.CreatedAt, &agent.UpdatedAt, &agent.CreatorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	agent.DisclosureChecklist = map[string]bool{}
	if len(checklistJSON) > 0 {
		if err := json.Unmarshal(checklistJSON, &agent.DisclosureChecklist); err != nil {
			return nil, fmt.Errorf("%w: invalid disclosure checklist: %v", ErrDatabase, err)
		}
	}
	if agent.Tags == nil {
		agent.Tags = []string{}
	}
	return &agent, nil
}

// CreateAgent inserts a new listing, mapping unique-constraint violations
// to the sentinel errors the publish flow retries or rejects on.
func (db *PostgreSQL) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	checklistJSON, err := json.Marshal(agent.DisclosureChecklist)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	row := db.pool.QueryRow(ctx, `INSERT INTO agents (
		slug, name, description, version, category, tags,
		repo_url, repo_owner, repo_name, repo_branch, agent_py_path, agent_yaml_path,
		has_valid_interface, license, readme_url, is_verified, verification_status,
		disclosure_checklist, evaluation_summary_url, usage_count, aggregate_score,
		status, featured, is_flagged, flag_count, published_at, creator_id
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
	) RETURNING `+agentColumns,
		agent.Slug, agent.Name, agent.Description, agent.Version, agent.Category, agent.Tags,
		agent.RepoURL, agent.RepoOwner, agent.RepoName, agent.RepoBranch,
		agent.AgentPyPath, agent.AgentYamlPath,
		agent.HasValidInterface, agent.License, agent.ReadmeURL,
		agent.IsVerified, agent.VerificationStatus,
		checklistJSON, agent.EvaluationSummaryURL,
		agent.UsageCount, agent.AggregateScore,
		agent.Status, agent.Featured, agent.IsFlagged, agent.FlagCount,
		agent.PublishedAt, agent.CreatorID,
	)

	created, err := scanAgent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "agents_repo_url_key":
				return nil, ErrAlreadyExists
			case "agents_slug_key":
				return nil, ErrSlugConflict
			}
		}
		return nil, err
	}
	return created, nil
}

// GetAgentBySlug retrieves a listing by its slug
func (db *PostgreSQL) GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	row := db.pool.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE slug = $1", slug)
	return scanAgent(row)
}

// GetAgentByRepoURL retrieves a listing by its source repository URL
func (db *PostgreSQL) GetAgentByRepoURL(ctx context.Context, repoURL string) (*models.Agent, error) {
	row := db.pool.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE repo_url = $1", repoURL)
	return scanAgent(row)
}

// ListAgents retrieves listings matching filter with offset pagination
func (db *PostgreSQL) ListAgents(ctx context.Context, filter *AgentFilter, page, limit int) ([]*models.Agent, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, fmt.Errorf("%w: page and limit must be positive", ErrInvalidInput)
	}

	var whereConditions []string
	args := []any{}
	argIndex := 1

	if filter != nil {
		if filter.Category != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("category = $%d", argIndex))
			args = append(args, *filter.Category)
			argIndex++
		}
		if filter.VerifiedOnly {
			whereConditions = append(whereConditions, "is_verified = TRUE")
		}
		if filter.HasEvaluation {
			whereConditions = append(whereConditions, "evaluation_summary_url <> ''")
		}
		if len(filter.Tags) > 0 {
			whereConditions = append(whereConditions, fmt.Sprintf("tags && $%d", argIndex))
			args = append(args, filter.Tags)
			argIndex++
		}
		if filter.Status != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
			args = append(args, string(*filter.Status))
			argIndex++
		}
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	orderBy := "aggregate_score DESC"
	if filter != nil {
		switch filter.Sort {
		case SortPopular:
			orderBy = "usage_count DESC"
		case SortNewest:
			orderBy = "published_at DESC NULLS LAST"
		}
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM agents " + whereClause
	if err := db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	query := fmt.Sprintf("SELECT %s FROM agents %s ORDER BY %s LIMIT $%d OFFSET $%d",
		agentColumns, whereClause, orderBy, argIndex, argIndex+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, 0, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return agents, total, nil
}

// ListFlags retrieves all flags recorded against a listing
func (db *PostgreSQL) ListFlags(ctx context.Context, agentID string) ([]*models.Flag, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, agent_id, user_id, reason, notes, created_at
		 FROM agent_flags WHERE agent_id = $1 ORDER BY created_at`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var flags []*models.Flag
	for rows.Next() {
		var flag models.Flag
		if err := rows.Scan(&flag.ID, &flag.AgentID, &flag.UserID, &flag.Reason, &flag.Notes, &flag.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
		}
		flags = append(flags, &flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return flags, nil
}

// AddFlag records a flag and bumps the listing's moderation counters in a
// single transaction.
func (db *PostgreSQL) AddFlag(ctx context.Context, flag *models.Flag) (*models.Agent, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO agent_flags (agent_id, user_id, reason, notes) VALUES ($1, $2, $3, $4)`,
		flag.AgentID, flag.UserID, string(flag.Reason), flag.Notes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	row := tx.QueryRow(ctx,
		`UPDATE agents SET flag_count = flag_count + 1, is_flagged = TRUE, updated_at = now()
		 WHERE id = $1 RETURNING `+agentColumns, flag.AgentID)
	agent, err := scanAgent(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return agent, nil
}

// RecordUsage stores a usage event and increments the listing's usage count
func (db *PostgreSQL) RecordUsage(ctx context.Context, agentID, userID string, action models.UsageAction) (*models.Agent, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO agent_usage_events (agent_id, user_id, action) VALUES ($1, $2, $3)`,
		agentID, userID, string(action)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	row := tx.QueryRow(ctx,
		`UPDATE agents SET usage_count = usage_count + 1, updated_at = now()
		 WHERE id = $1 RETURNING `+agentColumns, agentID)
	agent, err := scanAgent(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return agent, nil
}

// UpdateAgentScore stores a recomputed aggregate score
func (db *PostgreSQL) UpdateAgentScore(ctx context.Context, agentID string, score float64) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE agents SET aggregate_score = $2, updated_at = now() WHERE id = $1`, agentID, score)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MaxUsageCount returns the highest usage count across published listings
func (db *PostgreSQL) MaxUsageCount(ctx context.Context) (int, error) {
	var maxUsage int
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(usage_count), 0) FROM agents WHERE status = 'published'`).Scan(&maxUsage)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return maxUsage, nil
}

// Close closes the database connection
func (db *PostgreSQL) Close() error {
	db.pool.Close()
	return nil
}
