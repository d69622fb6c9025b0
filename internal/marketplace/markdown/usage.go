// Package markdown extracts display snippets from repository README files.
package markdown

import (
	"regexp"
	"strings"
)

var headingLevel = regexp.MustCompile(`^#+`)

// ExtractUsageExample returns the first fenced code block under a heading
// containing "usage", searching sub-headings but stopping at the next
// sibling or higher-level section. Returns "" when no such block exists.
func ExtractUsageExample(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	headingIndex := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.Contains(strings.ToLower(trimmed), "usage") {
			headingIndex = i
			break
		}
	}
	if headingIndex == -1 {
		return ""
	}

	usageLevel := len(headingLevel.FindString(strings.TrimSpace(lines[headingIndex])))

	fenceStart := -1
	for i := headingIndex + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "#") {
			if len(headingLevel.FindString(trimmed)) <= usageLevel {
				// Sibling or higher section reached without a code block.
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			fenceStart = i
			break
		}
	}
	if fenceStart == -1 {
		return ""
	}

	var codeLines []string
	for i := fenceStart + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			break
		}
		codeLines = append(codeLines, lines[i])
	}
	return strings.TrimSpace(strings.Join(codeLines, "\n"))
}
