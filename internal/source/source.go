package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/devflow/internal/model"
)

// Error kinds a batch can end with. Use errors.Is to match them.
var (
	// ErrConfigurationMissing means the base URL or credentials are absent.
	ErrConfigurationMissing = errors.New("jira connection is not configured")

	// ErrTransitionNotFound means the requested transition is not
	// available for an issue.
	ErrTransitionNotFound = errors.New("transition not found")
)

// RemoteError is returned when the tracker answers with a non-success
// HTTP status.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int

	// Messages holds error messages reported by the tracker, if any.
	Messages []string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s failed: HTTP %d", e.Path, e.StatusCode)
	if len(e.Messages) > 0 {
		msg += " (" + strings.Join(e.Messages, "; ") + ")"
	}
	return msg
}

// IsAuthError reports whether err (or any error in its chain) is a
// RemoteError caused by rejected credentials.
func IsAuthError(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == http.StatusUnauthorized
}

// TransitionNotFoundError names the issue, the requested transition and
// the transitions that were available instead.
type TransitionNotFoundError struct {
	IssueKey  string
	Name      string
	Available []string
}

func (e *TransitionNotFoundError) Error() string {
	return fmt.Sprintf(
		"%s: transition %q not found. Available: %s",
		e.IssueKey, e.Name, strings.Join(e.Available, ", "),
	)
}

// Is makes errors.Is(err, ErrTransitionNotFound) match.
func (e *TransitionNotFoundError) Is(target error) bool {
	return target == ErrTransitionNotFound
}

// Transition is a workflow transition available for an issue.
type Transition struct {
	ID   string
	Name string
}

// Tracker defines the remote operations the batch orchestrator and the
// status checker need from a project tracker.
type Tracker interface {
	// ListTransitions returns the transitions currently available for
	// the issue.
	ListTransitions(ctx context.Context, issueKey string) ([]Transition, error)

	// ApplyTransition performs the transition with the given ID.
	ApplyTransition(ctx context.Context, issueKey, transitionID string) error

	// GetStatus returns the current status name of the issue, or
	// "Unknown" when the tracker does not report one.
	GetStatus(ctx context.Context, issueKey string) (string, error)

	// TodayWorklogs returns the current user's worklogs logged since
	// the start of today as busy intervals.
	TodayWorklogs(ctx context.Context) ([]model.BusyInterval, error)

	// PostWorklog logs minutes on the issue starting at start.
	PostWorklog(
		ctx context.Context,
		issueKey string,
		start time.Time,
		minutes int,
		comment string,
	) error
}

// Factory builds a Tracker for a resolved connection.
type Factory func(conn model.Connection) Tracker
