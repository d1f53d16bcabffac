package crossref

import (
	"regexp"
	"strings"
)

// jiraKeyPattern matches Jira issue keys (e.g., PROJ-123, ABC-1).
var jiraKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]+-\d+)\b`)

// browsePattern matches Jira browse links (e.g., https://x.atlassian.net/browse/PROJ-1).
var browsePattern = regexp.MustCompile(`(?i)https?://[^\s/]+/browse/([A-Z][A-Z0-9_]+-\d+)`)

// ExtractIssueKeys extracts Jira issue keys from free text such as a pull
// request title, branch name or description. Keys inside browse links
// are found first and matched case-insensitively, then bare upper-case
// keys. Keys are upper-cased and returned deduplicated in order of first
// occurrence.
func ExtractIssueKeys(text string) []string {
	var found []string
	for _, m := range browsePattern.FindAllStringSubmatch(text, -1) {
		found = append(found, m[1])
	}
	found = append(found, jiraKeyPattern.FindAllString(text, -1)...)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range found {
		key := strings.ToUpper(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, key)
	}
	return result
}

// MatchCrossRefs extracts Jira issue keys from a pull request's branch
// name, title, and description. If known is non-empty, only keys that
// appear in that set are returned; otherwise all found keys are returned.
func MatchCrossRefs(
	branch string,
	title string,
	description string,
	known map[string]bool,
) []string {
	combined := branch + " " + title + " " + description
	keys := ExtractIssueKeys(combined)

	if len(known) == 0 {
		return keys
	}

	var filtered []string
	for _, key := range keys {
		if known[key] {
			filtered = append(filtered, key)
		}
	}
	return filtered
}
