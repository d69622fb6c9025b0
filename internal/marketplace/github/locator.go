package github

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidRepoURL is returned when a submitted URL does not look like a
// GitHub repository URL.
var ErrInvalidRepoURL = errors.New("repository URL must follow the pattern https://github.com/<owner>/<repo>")

// Coordinates identifies a repository and the branch a submission targets.
// The branch is a caller-supplied default until it has been confirmed
// against the repository's actual default branch.
type Coordinates struct {
	Owner  string
	Repo   string
	Branch string
}

var repoURLPattern = regexp.MustCompile(`github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)(?:/.*)?$`)

// ParseRepoURL extracts owner/repo coordinates from a GitHub repository URL.
// A trailing ".git" suffix on the repository name is stripped. No network
// access happens here; the branch is passed through as a default.
func ParseRepoURL(repoURL, defaultBranch string) (Coordinates, error) {
	match := repoURLPattern.FindStringSubmatch(repoURL)
	if match == nil {
		return Coordinates{}, ErrInvalidRepoURL
	}
	return Coordinates{
		Owner:  match[1],
		Repo:   strings.TrimSuffix(match[2], ".git"),
		Branch: defaultBranch,
	}, nil
}
