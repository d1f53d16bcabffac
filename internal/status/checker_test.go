package status

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source/sourcetest"
)

var testConn = model.Connection{BaseURL: "https://jira.example.com", AuthHeader: "Bearer t"}

func TestCheckOneMatchesOneDoesNot(t *testing.T) {
	fake := &sourcetest.Tracker{Statuses: map[string]string{
		"ABC-1": "in review",
		"ABC-2": "In Progress",
	}}

	got := NewChecker(fake.Factory()).Check(context.Background(), testConn, model.StatusCheckRequest{
		IssueKeys:    []string{"ABC-1", "ABC-2"},
		TargetStatus: "In Review",
	})

	assert.False(t, got.AllInTarget)
	assert.Empty(t, got.Errors)
	require.Len(t, got.Statuses, 2)
	assert.Equal(t, []model.IssueStatus{{IssueKey: "ABC-1", CurrentStatus: "in review", IsInTarget: true}}, got.InTarget())
	assert.Equal(t, WarnPartial, Decide(got))
}

func TestCheckMatchesAnyEquivalentName(t *testing.T) {
	fake := &sourcetest.Tracker{Statuses: map[string]string{
		"ABC-1": "Code Review",
		"ABC-2": "In Review",
	}}

	got := NewChecker(fake.Factory()).Check(context.Background(), testConn, model.StatusCheckRequest{
		IssueKeys:      []string{"ABC-1", "ABC-2"},
		TargetStatus:   "In Review",
		TargetStatuses: []string{"In Review", "code review"},
	})

	assert.True(t, got.AllInTarget)
	assert.Equal(t, WarnAll, Decide(got))
}

func TestCheckFetchFailureDoesNotBlockOthers(t *testing.T) {
	fake := &sourcetest.Tracker{
		Statuses:   map[string]string{"ABC-1": "Done", "ABC-3": "Done"},
		StatusErrs: map[string]error{"ABC-2": errors.New("/rest/api/2/issue/ABC-2?fields=status failed: HTTP 404")},
	}

	got := NewChecker(fake.Factory()).Check(context.Background(), testConn, model.StatusCheckRequest{
		IssueKeys:    []string{"ABC-1", "ABC-2", "ABC-3"},
		TargetStatus: "Done",
	})

	assert.False(t, got.AllInTarget)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "ABC-2")
	require.Len(t, got.Statuses, 2)
	assert.Equal(t, "ABC-1", got.Statuses[0].IssueKey)
	assert.Equal(t, "ABC-3", got.Statuses[1].IssueKey)
	assert.Equal(t, Abort, Decide(got))
}

func TestCheckEmptyKeys(t *testing.T) {
	fake := &sourcetest.Tracker{}

	got := NewChecker(fake.Factory()).Check(context.Background(), testConn, model.StatusCheckRequest{TargetStatus: "Done"})

	assert.False(t, got.AllInTarget)
	assert.Equal(t, []string{"No issue keys provided."}, got.Errors)
	assert.Empty(t, fake.Connections())
}

func TestCheckMissingConfiguration(t *testing.T) {
	fake := &sourcetest.Tracker{}

	got := NewChecker(fake.Factory()).Check(context.Background(), model.Connection{}, model.StatusCheckRequest{
		IssueKeys:    []string{"ABC-1"},
		TargetStatus: "Done",
	})

	assert.False(t, got.AllInTarget)
	require.Len(t, got.Errors, 1)
	assert.Empty(t, fake.Connections())
}

func TestTargetNames(t *testing.T) {
	got := TargetNames(model.StatusCheckRequest{
		TargetStatus:   " In Review ",
		TargetStatuses: []string{"in review", "", "Code Review"},
	})
	assert.Equal(t, []string{"In Review", "Code Review"}, got)
}

func TestDecideProceed(t *testing.T) {
	c := model.StatusClassification{Statuses: []model.IssueStatus{
		{IssueKey: "ABC-1", CurrentStatus: "Open"},
	}}
	assert.Equal(t, Proceed, Decide(c))

	_, ok := Describe(Proceed, "Done", c)
	assert.False(t, ok)
}

func TestDescribePartial(t *testing.T) {
	c := model.StatusClassification{Statuses: []model.IssueStatus{
		{IssueKey: "ABC-1", CurrentStatus: "Done", IsInTarget: true},
		{IssueKey: "ABC-2", CurrentStatus: "Open"},
	}}

	w, ok := Describe(WarnPartial, "Done", c)
	require.True(t, ok)
	assert.Contains(t, w.Message, "ABC-1")
	assert.Contains(t, w.Message, "ABC-2 (Open)")
}
