package jira

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	gosync "sync"
	"time"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
)

// todayWorklogJQL finds issues the current user logged work on today.
const todayWorklogJQL = "worklogAuthor = currentUser() AND worklogDate >= startOfDay()"

// maxWorklogIssues caps the search behind the worklog snapshot.
const maxWorklogIssues = 100

// unknownStatus is reported when an issue carries no status field.
const unknownStatus = "Unknown"

// Adapter implements source.Tracker for Jira Server/DC.
type Adapter struct {
	client *Client
	logger *log.Logger
}

var _ source.Tracker = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger for diagnostics such as skipped worklog
// pages.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter creates a new Jira adapter for a resolved connection.
func NewAdapter(conn model.Connection, opts ...Option) *Adapter {
	return NewAdapterWithClient(NewClient(conn.BaseURL, conn.AuthHeader), opts...)
}

// NewAdapterWithClient wraps an existing client.
func NewAdapterWithClient(c *Client, opts ...Option) *Adapter {
	a := &Adapter{client: c, logger: log.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factory returns a source.Factory producing Jira adapters.
func Factory(opts ...Option) source.Factory {
	return func(conn model.Connection) source.Tracker {
		return NewAdapter(conn, opts...)
	}
}

// ValidateConnection verifies credentials by calling GET /rest/api/2/myself.
// Returns the user's display name (or login name) on success.
func (a *Adapter) ValidateConnection(
	ctx context.Context,
) (string, error) {
	var me Myself
	if err := a.client.Get(ctx, "/rest/api/2/myself", &me); err != nil {
		return "", fmt.Errorf("validating Jira connection: %w", err)
	}
	if me.DisplayName != "" {
		return me.DisplayName, nil
	}
	return me.Identity(), nil
}

// ListTransitions returns the transitions available for an issue.
func (a *Adapter) ListTransitions(
	ctx context.Context,
	issueKey string,
) ([]source.Transition, error) {
	var resp TransitionsResponse
	if err := a.client.Get(ctx, transitionsPath(issueKey), &resp); err != nil {
		return nil, err
	}

	out := make([]source.Transition, 0, len(resp.Transitions))
	for _, t := range resp.Transitions {
		out = append(out, source.Transition{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// ApplyTransition performs a status transition on a Jira issue.
func (a *Adapter) ApplyTransition(
	ctx context.Context,
	issueKey string,
	transitionID string,
) error {
	payload := TransitionRequest{Transition: TransitionRef{ID: transitionID}}

	// Transition endpoint returns 204 No Content on success.
	return a.client.Post(ctx, transitionsPath(issueKey), payload, nil)
}

// GetStatus returns the name of the issue's current status.
func (a *Adapter) GetStatus(
	ctx context.Context,
	issueKey string,
) (string, error) {
	var issue Issue
	path := fmt.Sprintf("/rest/api/2/issue/%s?fields=status", url.PathEscape(issueKey))
	if err := a.client.Get(ctx, path, &issue); err != nil {
		return "", err
	}
	if issue.Fields.Status == nil || issue.Fields.Status.Name == "" {
		return unknownStatus, nil
	}
	return issue.Fields.Status.Name, nil
}

// TodayWorklogs resolves the current user, searches for issues they
// logged work on since the start of today, and collects their worklogs
// as busy intervals. Issues whose worklog list cannot be fetched are
// skipped; failures resolving the user or searching are returned.
func (a *Adapter) TodayWorklogs(
	ctx context.Context,
) ([]model.BusyInterval, error) {
	var me Myself
	if err := a.client.Get(ctx, "/rest/api/2/myself", &me); err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	uid := me.Identity()

	query := url.Values{}
	query.Set("jql", todayWorklogJQL)
	query.Set("fields", "key")
	query.Set("maxResults", fmt.Sprint(maxWorklogIssues))

	var search SearchResponse
	if err := a.client.Get(ctx, "/rest/api/2/search?"+query.Encode(), &search); err != nil {
		return nil, fmt.Errorf("searching today's worklogs: %w", err)
	}

	var (
		mu        gosync.Mutex
		wg        gosync.WaitGroup
		intervals []model.BusyInterval
	)
	for _, issue := range search.Issues {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()

			var page WorklogPage
			if err := a.client.Get(ctx, worklogPath(key), &page); err != nil {
				a.logger.Printf("skipping worklogs of %s: %v", key, err)
				return
			}

			mine := userIntervals(page.Worklogs, uid)
			mu.Lock()
			intervals = append(intervals, mine...)
			mu.Unlock()
		}(issue.Key)
	}
	wg.Wait()

	return intervals, nil
}

// PostWorklog logs minutes on a Jira issue starting at start.
func (a *Adapter) PostWorklog(
	ctx context.Context,
	issueKey string,
	start time.Time,
	minutes int,
	comment string,
) error {
	payload := WorklogCreate{
		TimeSpentSeconds: int64(minutes) * 60,
		Started:          FormatStarted(start),
		Comment:          comment,
	}

	var created Worklog
	return a.client.Post(ctx, worklogPath(issueKey), payload, &created)
}

// userIntervals converts the worklogs authored by uid into busy intervals.
func userIntervals(worklogs []Worklog, uid string) []model.BusyInterval {
	var out []model.BusyInterval
	for _, wl := range worklogs {
		if !wl.Author.Is(uid) {
			continue
		}
		start := parseJiraTime(wl.Started)
		if start.IsZero() {
			continue
		}
		out = append(out, model.BusyInterval{
			Start: start,
			End:   start.Add(time.Duration(wl.TimeSpentSeconds) * time.Second),
		})
	}
	return out
}

func transitionsPath(issueKey string) string {
	return fmt.Sprintf("/rest/api/2/issue/%s/transitions", url.PathEscape(issueKey))
}

func worklogPath(issueKey string) string {
	return fmt.Sprintf("/rest/api/2/issue/%s/worklog", url.PathEscape(issueKey))
}

// FormatStarted renders t in the local-time-with-offset form Jira expects
// for worklog start times, e.g. "2026-03-04T10:05:00.000+0100". The
// millisecond part is always ".000".
func FormatStarted(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + ".000" + t.Format("-0700")
}

// parseJiraTime parses a Jira timestamp string. Jira uses the format
// "2006-01-02T15:04:05.000+0000".
func parseJiraTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	layouts := []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05-0700",
		time.RFC3339Nano,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}

	return time.Time{}
}
