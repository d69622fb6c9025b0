package validation

import (
	"strings"

	"github.com/agenthub-dev/agenthub/pkg/models"
)

// interfaceRule is one textual predicate over agent.py source. A failing
// error-severity rule blocks publishing; a failing warning-severity rule is
// surfaced alongside the result.
type interfaceRule struct {
	failed  func(content string) bool
	warning bool
	message string
}

// The CLI contract these rules approximate: agent.py must be invokable as
// a script, read a JSON payload from its argument vector, and print its
// result. These are shallow string checks, not program analysis; false
// positives are an accepted tradeoff for sandbox-free validation.
var interfaceRules = []interfaceRule{
	{
		failed:  func(content string) bool { return strings.TrimSpace(content) == "" },
		message: "agent.py is empty",
	},
	{
		failed: func(content string) bool {
			return !strings.Contains(content, `if __name__ == "__main__"`)
		},
		message: `agent.py must define a CLI entry point guarded by if __name__ == "__main__"`,
	},
	{
		failed: func(content string) bool {
			return !strings.Contains(content, "json.loads") || !strings.Contains(content, "sys.argv")
		},
		message: "agent.py must parse JSON input from sys.argv",
	},
	{
		failed:  func(content string) bool { return !strings.Contains(content, "print(") },
		warning: true,
		message: "agent.py does not appear to print output; ensure it returns JSON results",
	},
}

// CheckPythonInterface runs the interface heuristic over agent.py content.
func CheckPythonInterface(content string) models.InterfaceCheckResult {
	result := models.InterfaceCheckResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	for _, rule := range interfaceRules {
		if !rule.failed(content) {
			continue
		}
		if rule.warning {
			result.Warnings = append(result.Warnings, rule.message)
		} else {
			result.Errors = append(result.Errors, rule.message)
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}
