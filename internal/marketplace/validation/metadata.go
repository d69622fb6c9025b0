// Package validation implements the structural checks a repository must
// pass before it becomes a marketplace listing: schema validation of the
// declared agent.yaml and a textual heuristic over the agent.py entry
// point. Nothing here executes fetched code.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agenthub-dev/agenthub/pkg/models"
)

// ErrMetadataUnparsable indicates agent.yaml could not be parsed at all,
// as opposed to parsing fine and violating the schema.
var ErrMetadataUnparsable = errors.New("unable to parse agent.yaml")

// Issue is a single schema violation at a document path.
type Issue struct {
	Path    string
	Message string
}

// MetadataError carries the itemized schema violations for display.
type MetadataError struct {
	Issues []Issue
}

func (e *MetadataError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Path + ": " + issue.Message
	}
	return "agent.yaml validation failed: " + strings.Join(parts, "; ")
}

// ParseAgentMetadata parses agent.yaml content and validates it against the
// metadata schema. On success it also returns non-blocking quality
// warnings. Schema violations yield a *MetadataError; malformed YAML
// yields an error wrapping ErrMetadataUnparsable.
func ParseAgentMetadata(content string) (*models.AgentMetadata, []string, error) {
	var metadata models.AgentMetadata
	if err := yaml.Unmarshal([]byte(content), &metadata); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMetadataUnparsable, err)
	}

	if issues := validateMetadata(&metadata); len(issues) > 0 {
		return nil, nil, &MetadataError{Issues: issues}
	}

	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}

	var warnings []string
	if len(metadata.Tags) == 0 {
		warnings = append(warnings, "No tags provided. Tags improve discovery.")
	}

	return &metadata, warnings, nil
}

func validateMetadata(m *models.AgentMetadata) []Issue {
	var issues []Issue
	add := func(path, message string) {
		issues = append(issues, Issue{Path: path, Message: message})
	}

	if m.Name == "" {
		add("name", "Agent name is required")
	}
	if m.Version == "" {
		add("version", "Version is required")
	}
	if m.Description == "" {
		add("description", "Description is required")
	}
	if m.Documentation != nil && m.Documentation.URL != "" && !validURL(m.Documentation.URL) {
		add("documentation.url", "must be a valid URL")
	}
	if m.Evaluation != nil && m.Evaluation.SummaryURL != "" && !validURL(m.Evaluation.SummaryURL) {
		add("evaluation.summaryUrl", "must be a valid URL")
	}

	if len(m.Interface.Methods) == 0 {
		add("interface.methods", "At least one interface method is required")
	}

	// Map iteration order is random; sort method names so violation lists
	// are stable for display and testing.
	methodNames := make([]string, 0, len(m.Interface.Methods))
	for name := range m.Interface.Methods {
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)

	for _, name := range methodNames {
		method := m.Interface.Methods[name]
		methodPath := "interface.methods." + name
		if method.Description == "" {
			add(methodPath+".description", "Method description is required")
		}

		paramNames := make([]string, 0, len(method.Parameters))
		for paramName := range method.Parameters {
			paramNames = append(paramNames, paramName)
		}
		sort.Strings(paramNames)
		for _, paramName := range paramNames {
			if method.Parameters[paramName].Type == "" {
				add(methodPath+".parameters."+paramName+".type", "Parameter type is required")
			}
		}

		if method.Returns != nil && method.Returns.Type == "" {
			add(methodPath+".returns.type", "Return type is required")
		}
	}

	return issues
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
