package model

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Merge request states a button can be restricted to.
const (
	MRStatusOpen     = "open"
	MRStatusMerged   = "merged"
	MRStatusClosed   = "closed"
	MRStatusCanceled = "canceled"
)

// Review actions that can fire a button automatically.
const (
	ActionApprove      = "approve"
	ActionMerge        = "merge"
	ActionSubmitReview = "submitReview"
)

const defaultButtonColor = "rgb(99, 166, 233)"

// Button is a user-defined preset combining a transition and a worklog
// comment. A button without a transition only logs time.
type Button struct {
	// Label is the name shown to the user and used to select the preset.
	Label string `mapstructure:"label" yaml:"label"`

	// TransitionName is the Jira transition to apply. Empty means the
	// button only logs work.
	TransitionName string `mapstructure:"transition_name" yaml:"transition_name"`

	// TargetStatus is the status name issues end up in after the
	// transition. Defaults to TransitionName, then Label.
	TargetStatus string `mapstructure:"target_status" yaml:"target_status"`

	// WorklogComment is attached to every worklog posted by this button.
	WorklogComment string `mapstructure:"worklog_comment" yaml:"worklog_comment"`

	Color string `mapstructure:"color" yaml:"color"`

	// MRStatus restricts visibility to merge requests in this state.
	MRStatus string `mapstructure:"mr_status" yaml:"mr_status"`

	// Branches restricts visibility to these target branches
	// (comma-separated in YAML, normalized to lower case).
	Branches string `mapstructure:"branches" yaml:"branches"`

	AutoOnApprove      bool `mapstructure:"auto_on_approve" yaml:"auto_on_approve"`
	AutoOnMerge        bool `mapstructure:"auto_on_merge" yaml:"auto_on_merge"`
	AutoOnSubmitReview bool `mapstructure:"auto_on_submit_review" yaml:"auto_on_submit_review"`
}

// Normalize trims fields and fills in defaults.
func (b Button) Normalize() Button {
	b.Label = strings.TrimSpace(b.Label)
	b.TransitionName = strings.TrimSpace(b.TransitionName)
	b.TargetStatus = strings.TrimSpace(b.TargetStatus)
	if b.TargetStatus == "" {
		b.TargetStatus = b.TransitionName
	}
	if b.TargetStatus == "" {
		b.TargetStatus = b.Label
	}
	if b.Color == "" {
		b.Color = defaultButtonColor
	}
	b.MRStatus = strings.ToLower(strings.TrimSpace(b.MRStatus))
	if b.MRStatus == "" {
		b.MRStatus = MRStatusOpen
	}
	b.Branches = strings.Join(b.BranchList(), ",")
	return b
}

// BranchList returns the trimmed, lower-cased, non-empty branch names.
func (b Button) BranchList() []string {
	var out []string
	for _, s := range strings.Split(b.Branches, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TargetStatusNames returns the unique non-empty names that count as
// "already in target": target status, transition name and label.
func (b Button) TargetStatusNames() []string {
	return uniqueNonEmpty(b.TargetStatus, b.TransitionName, b.Label)
}

// Visible reports whether the button applies to a merge request in the
// given state targeting branch. Unknown state or branch means visible.
func (b Button) Visible(mrStatus, branch string) bool {
	if mrStatus == "" || branch == "" {
		return true
	}
	return strings.EqualFold(b.MRStatus, mrStatus) && b.MatchesBranch(branch)
}

// MatchesBranch reports whether branch is one of the button's target
// branches.
func (b Button) MatchesBranch(branch string) bool {
	branch = strings.ToLower(strings.TrimSpace(branch))
	if branch == "" {
		return false
	}
	for _, br := range b.BranchList() {
		if br == branch {
			return true
		}
	}
	return false
}

// AutoTriggered reports whether the button fires automatically after the
// given review action.
func (b Button) AutoTriggered(action string) bool {
	switch action {
	case ActionApprove:
		return b.AutoOnApprove
	case ActionMerge:
		return b.AutoOnMerge
	case ActionSubmitReview:
		return b.AutoOnSubmitReview
	default:
		return false
	}
}

// IsAction reports whether action is a known review action.
func IsAction(action string) bool {
	switch action {
	case ActionApprove, ActionMerge, ActionSubmitReview:
		return true
	}
	return false
}

// VisibleButtons returns the buttons shown for a merge request in the
// given state targeting branch, in configuration order.
func VisibleButtons(buttons []Button, mrStatus, branch string) []Button {
	var out []Button
	for _, b := range buttons {
		if b.Visible(mrStatus, branch) {
			out = append(out, b)
		}
	}
	return out
}

// AutoButtons returns the buttons fired by action on a merge request
// targeting branch. The merge request state is ignored but the branch
// must match, so an unknown branch fires nothing.
func AutoButtons(buttons []Button, action, branch string) []Button {
	var out []Button
	for _, b := range buttons {
		if b.AutoTriggered(action) && b.MatchesBranch(branch) {
			out = append(out, b)
		}
	}
	return out
}

// FindButton returns the button whose label matches case-insensitively.
func FindButton(buttons []Button, label string) (Button, bool) {
	for _, b := range buttons {
		if strings.EqualFold(b.Label, label) {
			return b, true
		}
	}
	return Button{}, false
}

//go:embed defaults.yaml
var defaultButtonsYAML []byte

// DefaultButtons returns the built-in presets used when the configuration
// defines none.
func DefaultButtons() ([]Button, error) {
	var doc struct {
		Buttons []Button `yaml:"buttons"`
	}
	if err := yaml.Unmarshal(defaultButtonsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing default buttons: %w", err)
	}
	out := make([]Button, 0, len(doc.Buttons))
	for _, b := range doc.Buttons {
		out = append(out, b.Normalize())
	}
	return out, nil
}

func uniqueNonEmpty(values ...string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
