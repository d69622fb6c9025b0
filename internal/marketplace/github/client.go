package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for failures the publish flow reacts to differently.
var (
	// ErrRepositoryNotFound covers both missing and private repositories;
	// GitHub reports them identically.
	ErrRepositoryNotFound = errors.New("repository not found or inaccessible")
	// ErrRateLimited covers quota/permission failures. Distinct from
	// not-found so callers can suggest configuring an access token.
	ErrRateLimited = errors.New("github rate limit reached")
)

// Repository is the subset of repository metadata the marketplace uses.
type Repository struct {
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
	Description   string `json:"description"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
	OpenIssues    int    `json:"open_issues_count"`
}

// File is a decoded repository file at a specific ref.
type File struct {
	Path    string
	Content string
}

// agentFileCandidates is the ordered list of locations searched for the
// agent contract files. Root takes precedence over nested locations.
var agentFileCandidates = []string{"", "src/", "agents/"}

// Client fetches repository metadata and file contents from the GitHub API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client against the given API base URL. The token is
// optional; when set it is sent as a bearer credential.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	client := c.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

// GetRepository retrieves repository metadata for owner/repo.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, owner, repo)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: add a GITHUB_ACCESS_TOKEN or try again later", ErrRateLimited)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var repository Repository
	if err := json.NewDecoder(resp.Body).Decode(&repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// GetFileContent retrieves the decoded content of a file at a specific ref.
// A missing file is not an error: callers get (nil, nil) and use it to
// implement fallback search paths.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (*File, error) {
	reqPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, path, url.QueryEscape(ref))
	resp, err := c.get(ctx, reqPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: add a GITHUB_ACCESS_TOKEN or try again later", ErrRateLimited)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("content %s status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	content := payload.Content
	if strings.EqualFold(payload.Encoding, "base64") {
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode content %s: %w", path, err)
		}
		content = string(data)
	}
	return &File{Path: path, Content: content}, nil
}

// ResolveAgentFile searches the candidate locations for filename, in order:
// repository root, then src/, then agents/. Returns (nil, nil) when the
// file exists in none of them.
func (c *Client) ResolveAgentFile(ctx context.Context, owner, repo, ref, filename string) (*File, error) {
	for _, prefix := range agentFileCandidates {
		file, err := c.GetFileContent(ctx, owner, repo, prefix+filename, ref)
		if err != nil {
			return nil, err
		}
		if file != nil {
			return file, nil
		}
	}
	return nil, nil
}

// FetchReadme retrieves README.md at the given ref. Best-effort: absence is
// reported as (nil, nil), never as an error.
func (c *Client) FetchReadme(ctx context.Context, owner, repo, ref string) (*File, error) {
	return c.GetFileContent(ctx, owner, repo, "README.md", ref)
}
