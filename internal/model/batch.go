package model

import "time"

// Connection is the resolved Jira endpoint and credentials for one call.
// It is passed explicitly into every batch and status check.
type Connection struct {
	// BaseURL is the root URL of the Jira instance without a trailing slash.
	BaseURL string `json:"base_url"`

	// AuthHeader is the full value of the Authorization header
	// (e.g., "Basic dXNlcjpwYXNz" or "Bearer <PAT>").
	AuthHeader string `json:"-"`
}

// Configured reports whether both the base URL and credentials are present.
func (c Connection) Configured() bool {
	return c.BaseURL != "" && c.AuthHeader != ""
}

// BrowseURL returns the web URL for an issue key.
func (c Connection) BrowseURL(issueKey string) string {
	return c.BaseURL + "/browse/" + issueKey
}

// WorklogRequest asks for a worklog entry of Minutes on IssueKey.
// Requests with Minutes <= 0 are dropped before scheduling.
type WorklogRequest struct {
	IssueKey string `json:"issueKey"`
	Minutes  int    `json:"minutes"`
	Comment  string `json:"comment"`
}

// BatchRequest is a single batch of transitions and worklogs.
type BatchRequest struct {
	// IssueKeys are the Jira issue keys the batch applies to. Duplicates
	// are processed and counted independently.
	IssueKeys []string `json:"issueKeys"`

	// TransitionName is the transition to apply to every key. Empty
	// means no status change is requested.
	TransitionName string `json:"transitionName,omitempty"`

	// Worklogs are posted sequentially in input order.
	Worklogs []WorklogRequest `json:"worklogs,omitempty"`
}

// BatchResult aggregates the outcome of every sub-operation in a batch.
type BatchResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Attempted returns the number of sub-operations that were actually tried.
func (r BatchResult) Attempted() int {
	return r.Success + r.Failed
}

// StatusCheckRequest asks whether the given issues are already in a
// target status. TargetStatuses lists acceptable equivalent names; the
// check matches against TargetStatus and every entry of TargetStatuses.
type StatusCheckRequest struct {
	IssueKeys      []string `json:"issueKeys"`
	TargetStatus   string   `json:"targetStatus"`
	TargetStatuses []string `json:"targetStatuses,omitempty"`
}

// IssueStatus is the current status of one issue relative to a target.
type IssueStatus struct {
	IssueKey      string `json:"issueKey"`
	CurrentStatus string `json:"currentStatus"`
	IsInTarget    bool   `json:"isInTargetStatus"`
}

// StatusClassification is the result of a status precondition check.
type StatusClassification struct {
	AllInTarget bool          `json:"allInTargetStatus"`
	Statuses    []IssueStatus `json:"statuses"`
	Errors      []string      `json:"errors"`
}

// InTarget returns the issues that already match the target status.
func (c StatusClassification) InTarget() []IssueStatus {
	var out []IssueStatus
	for _, s := range c.Statuses {
		if s.IsInTarget {
			out = append(out, s)
		}
	}
	return out
}

// NotInTarget returns the issues that do not yet match the target status.
func (c StatusClassification) NotInTarget() []IssueStatus {
	var out []IssueStatus
	for _, s := range c.Statuses {
		if !s.IsInTarget {
			out = append(out, s)
		}
	}
	return out
}

// BusyInterval is an already-booked half-open time range [Start, End).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end) intersects the interval.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}
