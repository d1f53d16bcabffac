package status

import (
	"fmt"
	"strings"

	"github.com/nhle/devflow/internal/model"
)

// Decision is what the caller should do after a status check.
type Decision int

const (
	// Proceed means no issue is in the target status yet.
	Proceed Decision = iota
	// WarnPartial means some issues are already in the target status.
	WarnPartial
	// WarnAll means every issue is already in the target status.
	WarnAll
	// Abort means the check itself failed.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case WarnPartial:
		return "warn-partial"
	case WarnAll:
		return "warn-all"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide maps a classification onto the three-way warning decision.
func Decide(c model.StatusClassification) Decision {
	switch {
	case len(c.Errors) > 0:
		return Abort
	case c.AllInTarget:
		return WarnAll
	case len(c.InTarget()) > 0:
		return WarnPartial
	default:
		return Proceed
	}
}

// Warning describes a decision for display to the user.
type Warning struct {
	Title   string
	Message string
}

// Describe builds the title and message shown for a warning decision.
// It returns false for Proceed.
func Describe(d Decision, target string, c model.StatusClassification) (Warning, bool) {
	switch d {
	case Abort:
		return Warning{
			Title:   "Status check failed",
			Message: strings.Join(c.Errors, "\n"),
		}, true
	case WarnAll:
		return Warning{
			Title: "All issues already in target status",
			Message: fmt.Sprintf(
				"All linked issues are already in '%s' status:\n%s\n\nDo you want to proceed anyway?",
				target, joinKeys(c.Statuses, false),
			),
		}, true
	case WarnPartial:
		return Warning{
			Title: "Some issues already in target status",
			Message: fmt.Sprintf(
				"Some issues are already in '%s' status:\n%s\n\nIssues that will be transitioned:\n%s\n\nDo you want to proceed?",
				target, joinKeys(c.InTarget(), false), joinKeys(c.NotInTarget(), true),
			),
		}, true
	default:
		return Warning{}, false
	}
}

func joinKeys(statuses []model.IssueStatus, withStatus bool) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if withStatus {
			parts = append(parts, fmt.Sprintf("%s (%s)", s.IssueKey, s.CurrentStatus))
			continue
		}
		parts = append(parts, s.IssueKey)
	}
	return strings.Join(parts, ", ")
}
