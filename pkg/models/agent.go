package models

import "time"

// VerificationStatus captures whether a listing passed the publish checks.
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "unverified"
	VerificationStatusVerified   VerificationStatus = "verified"
)

// AgentStatus is the lifecycle state of a marketplace listing.
type AgentStatus string

const (
	AgentStatusDraft     AgentStatus = "draft"
	AgentStatusPublished AgentStatus = "published"
)

// Agent is a published marketplace listing backed by a GitHub repository.
type Agent struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug" doc:"Unique URL-safe identifier derived from the agent name"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`

	RepoURL    string `json:"repoUrl" doc:"Canonical repository URL, unique across listings"`
	RepoOwner  string `json:"repoOwner"`
	RepoName   string `json:"repoName"`
	RepoBranch string `json:"repoBranch"`

	AgentPyPath   string `json:"agentPyPath"`
	AgentYamlPath string `json:"agentYamlPath"`

	HasValidInterface  bool               `json:"hasValidInterface"`
	License            string             `json:"license,omitempty"`
	ReadmeURL          string             `json:"readmeUrl,omitempty"`
	IsVerified         bool               `json:"isVerified"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`

	DisclosureChecklist  map[string]bool `json:"disclosureChecklist"`
	EvaluationSummaryURL string          `json:"evaluationSummaryUrl,omitempty"`

	UsageCount     int     `json:"usageCount"`
	AggregateScore float64 `json:"aggregateScore"`

	Status    AgentStatus `json:"status"`
	Featured  bool        `json:"featured"`
	IsFlagged bool        `json:"isFlagged"`
	FlagCount int         `json:"flagCount"`

	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	CreatorID string `json:"creatorId"`
}

// FlagReason is the fixed set of reasons a listing can be reported for.
type FlagReason string

const (
	FlagReasonSpam      FlagReason = "spam"
	FlagReasonMalicious FlagReason = "malicious"
	FlagReasonBroken    FlagReason = "broken"
	FlagReasonLicense   FlagReason = "license"
	FlagReasonOther     FlagReason = "other"
)

// ValidFlagReason reports whether reason is one of the allowed values.
func ValidFlagReason(reason FlagReason) bool {
	switch reason {
	case FlagReasonSpam, FlagReasonMalicious, FlagReasonBroken, FlagReasonLicense, FlagReasonOther:
		return true
	}
	return false
}

// Flag is a user report against a listing. Flags are immutable once created
// and only contribute to ranking through aggregate counts.
type Flag struct {
	ID        string     `json:"id"`
	AgentID   string     `json:"agentId"`
	UserID    string     `json:"userId"`
	Reason    FlagReason `json:"reason"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UsageAction identifies how a listing was used.
type UsageAction string

const (
	UsageActionView    UsageAction = "view"
	UsageActionTry     UsageAction = "try"
	UsageActionInstall UsageAction = "install"
)

// AgentListResponse is the paginated listing payload.
type AgentListResponse struct {
	Agents []Agent `json:"agents"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// AgentDetail is a single listing together with its recorded flags.
type AgentDetail struct {
	Agent Agent  `json:"agent"`
	Flags []Flag `json:"flags"`
}

// PublishStatus distinguishes a persisted listing from a structured
// validation failure the submitter is expected to fix and resubmit.
type PublishStatus string

const (
	PublishStatusPublished        PublishStatus = "published"
	PublishStatusValidationFailed PublishStatus = "validation_failed"
)

// PublishResult is the outcome of a publish attempt. Warnings accumulate
// across metadata and interface validation and are returned on both success
// and validation failure.
type PublishResult struct {
	Status   PublishStatus `json:"status"`
	Agent    *Agent        `json:"agent,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Warnings []string      `json:"warnings"`
}
