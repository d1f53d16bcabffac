// Package sourcetest provides an in-memory source.Tracker for tests.
package sourcetest

import (
	"context"
	gosync "sync"
	"time"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
)

// AppliedTransition records one ApplyTransition call.
type AppliedTransition struct {
	IssueKey     string
	TransitionID string
}

// PostedWorklog records one PostWorklog call.
type PostedWorklog struct {
	IssueKey string
	Start    time.Time
	Minutes  int
	Comment  string
}

// Tracker is a configurable fake. Zero-value maps mean "no data"; set
// fields before use and read the recorded calls afterwards.
type Tracker struct {
	Transitions    map[string][]source.Transition
	TransitionErrs map[string]error
	ApplyErrs      map[string]error
	Statuses       map[string]string
	StatusErrs     map[string]error
	Busy           []model.BusyInterval
	BusyErr        error
	PostErrs       map[string]error
	PostDelay      time.Duration

	mu          gosync.Mutex
	applied     []AppliedTransition
	posted      []PostedWorklog
	busyCalls   int
	inFlight    int
	maxInFlight int
	connections []model.Connection
}

var _ source.Tracker = (*Tracker)(nil)

// Factory returns a source.Factory that always yields t and records the
// connections it was asked for.
func (t *Tracker) Factory() source.Factory {
	return func(conn model.Connection) source.Tracker {
		t.mu.Lock()
		t.connections = append(t.connections, conn)
		t.mu.Unlock()
		return t
	}
}

func (t *Tracker) ListTransitions(_ context.Context, issueKey string) ([]source.Transition, error) {
	if err := t.TransitionErrs[issueKey]; err != nil {
		return nil, err
	}
	return t.Transitions[issueKey], nil
}

func (t *Tracker) ApplyTransition(_ context.Context, issueKey, transitionID string) error {
	if err := t.ApplyErrs[issueKey]; err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applied = append(t.applied, AppliedTransition{IssueKey: issueKey, TransitionID: transitionID})
	return nil
}

func (t *Tracker) GetStatus(_ context.Context, issueKey string) (string, error) {
	if err := t.StatusErrs[issueKey]; err != nil {
		return "", err
	}
	if s, ok := t.Statuses[issueKey]; ok {
		return s, nil
	}
	return "Unknown", nil
}

func (t *Tracker) TodayWorklogs(context.Context) ([]model.BusyInterval, error) {
	t.mu.Lock()
	t.busyCalls++
	t.mu.Unlock()
	if t.BusyErr != nil {
		return nil, t.BusyErr
	}
	out := make([]model.BusyInterval, len(t.Busy))
	copy(out, t.Busy)
	return out, nil
}

func (t *Tracker) PostWorklog(
	_ context.Context,
	issueKey string,
	start time.Time,
	minutes int,
	comment string,
) error {
	t.mu.Lock()
	t.inFlight++
	if t.inFlight > t.maxInFlight {
		t.maxInFlight = t.inFlight
	}
	t.mu.Unlock()

	if t.PostDelay > 0 {
		time.Sleep(t.PostDelay)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight--
	if err := t.PostErrs[issueKey]; err != nil {
		return err
	}
	t.posted = append(t.posted, PostedWorklog{
		IssueKey: issueKey,
		Start:    start,
		Minutes:  minutes,
		Comment:  comment,
	})
	return nil
}

// Applied returns the recorded transitions.
func (t *Tracker) Applied() []AppliedTransition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]AppliedTransition(nil), t.applied...)
}

// Posted returns the recorded worklogs in call order.
func (t *Tracker) Posted() []PostedWorklog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]PostedWorklog(nil), t.posted...)
}

// BusyCalls returns how many times TodayWorklogs was called.
func (t *Tracker) BusyCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busyCalls
}

// MaxConcurrentPosts returns the highest number of overlapping
// PostWorklog calls observed.
func (t *Tracker) MaxConcurrentPosts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxInFlight
}

// Connections returns the connections passed to the factory.
func (t *Tracker) Connections() []model.Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Connection(nil), t.connections...)
}
