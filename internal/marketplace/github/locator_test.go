package github_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "https URL",
			url:       "https://github.com/acme/coding-agent",
			wantOwner: "acme",
			wantRepo:  "coding-agent",
		},
		{
			name:      "URL without scheme",
			url:       "github.com/acme/coding-agent",
			wantOwner: "acme",
			wantRepo:  "coding-agent",
		},
		{
			name:      "trailing .git suffix stripped",
			url:       "https://github.com/acme/coding-agent.git",
			wantOwner: "acme",
			wantRepo:  "coding-agent",
		},
		{
			name:      "extra path segments ignored",
			url:       "https://github.com/acme/coding-agent/tree/main/src",
			wantOwner: "acme",
			wantRepo:  "coding-agent",
		},
		{
			name:      "owner with dots and dashes",
			url:       "https://github.com/some.org-name/my_agent",
			wantOwner: "some.org-name",
			wantRepo:  "my_agent",
		},
		{
			name:    "not a github URL",
			url:     "https://gitlab.com/acme/coding-agent",
			wantErr: true,
		},
		{
			name:    "missing repo segment",
			url:     "https://github.com/acme",
			wantErr: true,
		},
		{
			name:    "empty string",
			url:     "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coords, err := github.ParseRepoURL(tc.url, "main")
			if tc.wantErr {
				require.ErrorIs(t, err, github.ErrInvalidRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOwner, coords.Owner)
			assert.Equal(t, tc.wantRepo, coords.Repo)
			assert.Equal(t, "main", coords.Branch)
		})
	}
}

func TestParseRepoURLPassesBranchThrough(t *testing.T) {
	coords, err := github.ParseRepoURL("https://github.com/acme/coding-agent", "develop")
	require.NoError(t, err)
	assert.Equal(t, "develop", coords.Branch)
}
