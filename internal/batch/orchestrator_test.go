package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/schedule"
	"github.com/nhle/devflow/internal/source"
	"github.com/nhle/devflow/internal/source/sourcetest"
)

var testConn = model.Connection{BaseURL: "https://jira.example.com", AuthHeader: "Bearer t"}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func newTestOrchestrator(fake *sourcetest.Tracker) *Orchestrator {
	return New(
		fake.Factory(),
		WithClock(func() time.Time { return at(10, 12) }),
		WithLogger(log.New(io.Discard, "", 0)),
	)
}

func workflow() []source.Transition {
	return []source.Transition{
		{ID: "11", Name: "To Do"},
		{ID: "21", Name: "In Progress"},
		{ID: "31", Name: "In Review"},
	}
}

func TestRunTransitionNotFound(t *testing.T) {
	fake := &sourcetest.Tracker{Transitions: map[string][]source.Transition{
		"ABC-1": {{ID: "11", Name: "To Do"}, {ID: "21", Name: "In Progress"}},
	}}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      []string{"ABC-1"},
		TransitionName: "Done",
	})

	assert.Equal(t, 0, got.Success)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, `ABC-1: transition "Done" not found. Available: To Do, In Progress`, got.Errors[0])
	assert.Empty(t, fake.Applied())
}

func TestRunTransitionMatchesCaseInsensitively(t *testing.T) {
	fake := &sourcetest.Tracker{Transitions: map[string][]source.Transition{
		"ABC-1": workflow(),
		"ABC-2": workflow(),
	}}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      []string{"ABC-1", "ABC-2"},
		TransitionName: "in review",
	})

	assert.Equal(t, 2, got.Success)
	assert.Equal(t, 0, got.Failed)
	assert.Empty(t, got.Errors)
	assert.ElementsMatch(t, []sourcetest.AppliedTransition{
		{IssueKey: "ABC-1", TransitionID: "31"},
		{IssueKey: "ABC-2", TransitionID: "31"},
	}, fake.Applied())
}

func TestRunTransitionFailureDoesNotStopSiblings(t *testing.T) {
	fake := &sourcetest.Tracker{
		Transitions: map[string][]source.Transition{
			"ABC-1": workflow(),
			"ABC-3": workflow(),
		},
		TransitionErrs: map[string]error{
			"ABC-2": &source.RemoteError{Method: "GET", Path: "/rest/api/2/issue/ABC-2/transitions", StatusCode: 404},
		},
		ApplyErrs: map[string]error{
			"ABC-3": &source.RemoteError{Method: "POST", Path: "/rest/api/2/issue/ABC-3/transitions", StatusCode: 400},
		},
	}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      []string{"ABC-1", "ABC-2", "ABC-3"},
		TransitionName: "In Progress",
	})

	assert.Equal(t, 1, got.Success)
	assert.Equal(t, 2, got.Failed)
	assert.Len(t, got.Errors, 2)
	for _, msg := range got.Errors {
		assert.Contains(t, msg, "failed: HTTP")
	}
	assert.Equal(t, []sourcetest.AppliedTransition{{IssueKey: "ABC-1", TransitionID: "21"}}, fake.Applied())
}

func TestRunWorklogsAreSequentialAndNonOverlapping(t *testing.T) {
	fake := &sourcetest.Tracker{PostDelay: 5 * time.Millisecond}
	keys := []string{"ABC-1", "ABC-2", "ABC-3"}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys: keys,
		Worklogs:  schedule.PlanWorklogs(keys, 15, "Code review"),
	})

	assert.Equal(t, 3, got.Success)
	assert.Equal(t, 0, got.Failed)
	assert.Equal(t, 1, fake.BusyCalls())
	assert.Equal(t, 1, fake.MaxConcurrentPosts())

	posted := fake.Posted()
	require.Len(t, posted, 3)
	wantStarts := []time.Time{at(10, 15), at(10, 20), at(10, 25)}
	for i, p := range posted {
		assert.Equal(t, keys[i], p.IssueKey)
		assert.Equal(t, 5, p.Minutes)
		assert.Equal(t, "Code review", p.Comment)
		assert.True(t, wantStarts[i].Equal(p.Start), "worklog %d starts at %s", i, p.Start)
	}
}

func TestRunWorklogsAvoidExistingWork(t *testing.T) {
	fake := &sourcetest.Tracker{Busy: []model.BusyInterval{
		{Start: at(10, 0), End: at(10, 38)},
		{Start: at(11, 0), End: at(11, 30)},
	}}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys: []string{"ABC-1", "ABC-2"},
		Worklogs: []model.WorklogRequest{
			{IssueKey: "ABC-1", Minutes: 15},
			{IssueKey: "ABC-2", Minutes: 10},
		},
	})

	assert.Equal(t, 2, got.Success)
	posted := fake.Posted()
	require.Len(t, posted, 2)
	assert.True(t, at(10, 40).Equal(posted[0].Start))
	// 10:55 would run into the 11:00 block.
	assert.True(t, at(11, 30).Equal(posted[1].Start))
}

func TestRunBusySnapshotFailureDegrades(t *testing.T) {
	fake := &sourcetest.Tracker{BusyErr: errors.New("/rest/api/2/search failed: HTTP 500")}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys: []string{"ABC-1"},
		Worklogs:  []model.WorklogRequest{{IssueKey: "ABC-1", Minutes: 30}},
	})

	assert.Equal(t, 1, got.Success)
	assert.Empty(t, got.Errors)
	posted := fake.Posted()
	require.Len(t, posted, 1)
	assert.True(t, at(10, 15).Equal(posted[0].Start))
}

func TestRunTransitionsAndWorklogsTogether(t *testing.T) {
	fake := &sourcetest.Tracker{
		Transitions: map[string][]source.Transition{"ABC-1": workflow(), "ABC-2": workflow()},
		PostErrs: map[string]error{
			"ABC-2": &source.RemoteError{Method: "POST", Path: "/rest/api/2/issue/ABC-2/worklog", StatusCode: 403},
		},
	}
	keys := []string{"ABC-1", "ABC-2"}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      keys,
		TransitionName: "In Review",
		Worklogs:       schedule.PlanWorklogs(keys, 30, ""),
	})

	assert.Equal(t, 4, got.Attempted())
	assert.Equal(t, 3, got.Success)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "ABC-2")
	assert.Contains(t, got.Errors[0], "HTTP 403")
}

func TestRunDropsZeroMinuteWorklogs(t *testing.T) {
	fake := &sourcetest.Tracker{}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys: []string{"ABC-1"},
		Worklogs:  []model.WorklogRequest{{IssueKey: "ABC-1", Minutes: 0}},
	})

	assert.Equal(t, model.BatchResult{Errors: []string{MsgNothingToDo}}, got)
	assert.Empty(t, fake.Connections())
	assert.Equal(t, 0, fake.BusyCalls())
}

func TestRunWithoutIssueKeys(t *testing.T) {
	fake := &sourcetest.Tracker{}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{TransitionName: "Done"})

	assert.Equal(t, model.BatchResult{Errors: []string{MsgNoIssueKeys}}, got)
	assert.Empty(t, fake.Connections())
}

func TestRunWithoutConfiguration(t *testing.T) {
	fake := &sourcetest.Tracker{}

	got := newTestOrchestrator(fake).Run(context.Background(), model.Connection{}, model.BatchRequest{
		IssueKeys:      []string{"ABC-1", "ABC-2"},
		TransitionName: "Done",
	})

	assert.Equal(t, 0, got.Success)
	assert.Equal(t, 2, got.Failed)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], source.ErrConfigurationMissing.Error())
	assert.Empty(t, fake.Connections())
}

func TestMissingConfigurationNamesCause(t *testing.T) {
	keys := []string{"ABC-1", "ABC-2", "ABC-3"}

	got := MissingConfiguration(keys, fmt.Errorf("%w: jira.base_url is empty", source.ErrConfigurationMissing))
	assert.Equal(t, model.BatchResult{
		Failed: 3,
		Errors: []string{"jira connection is not configured: jira.base_url is empty"},
	}, got)

	got = MissingConfiguration(keys, errors.New("opening keyring: locked"))
	assert.Equal(t, []string{"jira connection is not configured: opening keyring: locked"}, got.Errors)

	got = MissingConfiguration(keys, nil)
	assert.Equal(t, []string{source.ErrConfigurationMissing.Error()}, got.Errors)
}

func TestRunDuplicateKeysAreAttemptedEachTime(t *testing.T) {
	fake := &sourcetest.Tracker{Transitions: map[string][]source.Transition{"ABC-1": workflow()}}

	got := newTestOrchestrator(fake).Run(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      []string{"ABC-1", "ABC-1"},
		TransitionName: "To Do",
	})

	assert.Equal(t, 2, got.Success)
	assert.Len(t, fake.Applied(), 2)
}

func TestSubmitDeliversOneResult(t *testing.T) {
	fake := &sourcetest.Tracker{Transitions: map[string][]source.Transition{"ABC-1": workflow()}}

	ch := newTestOrchestrator(fake).Submit(context.Background(), testConn, model.BatchRequest{
		IssueKeys:      []string{"ABC-1"},
		TransitionName: "In Progress",
	})

	select {
	case got := <-ch:
		assert.Equal(t, 1, got.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, []model.Connection{testConn}, fake.Connections())
}
