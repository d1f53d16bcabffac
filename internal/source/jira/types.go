package jira

import (
	"fmt"
	"sort"
)

// SearchResponse is the response from GET /rest/api/2/search.
type SearchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Issue represents a single Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the issue fields requested by this client.
type IssueFields struct {
	Status *Status `json:"status,omitempty"`
}

// Status represents the status of a Jira issue.
type Status struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// User represents a Jira user. Server/DC identifies users by name and
// key; Cloud by accountId.
type User struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Is reports whether the user matches the given identity by name, key
// or account ID.
func (u *User) Is(id string) bool {
	if u == nil || id == "" {
		return false
	}
	return u.Name == id || u.Key == id || u.AccountID == id
}

// Myself is the response from GET /rest/api/2/myself.
type Myself struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// Identity returns the first non-empty of name, key and accountId.
func (m Myself) Identity() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Key != "":
		return m.Key
	default:
		return m.AccountID
	}
}

// Transition represents a possible status transition for a Jira issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransitionsResponse wraps the list of transitions returned by the API.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRequest is the body of POST /rest/api/2/issue/{key}/transitions.
type TransitionRequest struct {
	Transition TransitionRef `json:"transition"`
}

// TransitionRef identifies a transition by ID.
type TransitionRef struct {
	ID string `json:"id"`
}

// Worklog is a single worklog entry on an issue.
type Worklog struct {
	ID               string `json:"id"`
	Author           *User  `json:"author"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Comment          string `json:"comment"`
}

// WorklogPage is the response from GET /rest/api/2/issue/{key}/worklog.
type WorklogPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

// WorklogCreate is the body of POST /rest/api/2/issue/{key}/worklog.
type WorklogCreate struct {
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Started          string `json:"started"`
	Comment          string `json:"comment"`
}

// ErrorResponse is the standard Jira error response format.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// messages flattens the error response into a stable list.
func (e ErrorResponse) messages() []string {
	out := append([]string(nil), e.ErrorMessages...)
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		out = append(out, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}
	return out
}
