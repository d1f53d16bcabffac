package app

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devflow/internal/batch"
	"github.com/nhle/devflow/internal/credential"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
	"github.com/nhle/devflow/internal/source/sourcetest"
	"github.com/nhle/devflow/internal/store"
)

type memSecrets map[string]string

func (m memSecrets) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", credential.ErrNotFound
	}
	return v, nil
}

func (m memSecrets) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m memSecrets) Delete(key string) error {
	delete(m, key)
	return nil
}

const testConfig = `
jira:
  base_url: https://jira.example.com/
  username: alice
  auth: basic
worklog:
  enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestService(t *testing.T, fake *sourcetest.Tracker) (*Service, *store.SQLiteStore) {
	t.Helper()

	settings := NewSettings(writeConfig(t, testConfig), memSecrets{"jira:alice": "s3cr3t"})
	require.NoError(t, settings.Load())

	journal, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	return NewService(settings, fake.Factory(), journal, log.New(io.Discard, "", 0)), journal
}

func TestSettingsConnection(t *testing.T) {
	settings := NewSettings(writeConfig(t, testConfig), memSecrets{"jira:alice": "s3cr3t"})

	_, err := settings.Connection()
	assert.True(t, errors.Is(err, source.ErrConfigurationMissing))

	require.NoError(t, settings.Load())
	conn, err := settings.Connection()
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com", conn.BaseURL)
	assert.Equal(t, credential.BasicAuth("alice", "s3cr3t"), conn.AuthHeader)
}

func TestSettingsMissingSecret(t *testing.T) {
	settings := NewSettings(writeConfig(t, testConfig), memSecrets{})
	require.NoError(t, settings.Load())

	conn, err := settings.Connection()
	assert.True(t, errors.Is(err, source.ErrConfigurationMissing))
	assert.False(t, conn.Configured())
}

func TestSettingsRefreshPicksUpChanges(t *testing.T) {
	path := writeConfig(t, "jira:\n  auth: bearer\n")
	secrets := memSecrets{"jira-token": "pat"}
	settings := NewSettings(path, secrets)
	require.NoError(t, settings.Load())

	_, err := settings.Connection()
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("jira:\n  auth: bearer\n  base_url: https://jira.example.com\n"), 0o600))

	// Load is a no-op once loaded.
	require.NoError(t, settings.Load())
	_, err = settings.Connection()
	require.Error(t, err)

	require.NoError(t, settings.Refresh())
	conn, err := settings.Connection()
	require.NoError(t, err)
	assert.Equal(t, "Bearer pat", conn.AuthHeader)
}

func TestPlanWithButton(t *testing.T) {
	svc, _ := newTestService(t, &sourcetest.Tracker{})

	req, check, err := svc.Plan(Action{
		IssueKeys:    []string{"ABC-1", "ABC-2", "ABC-3"},
		Button:       "in review",
		TotalMinutes: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, "Code Review", req.TransitionName)
	require.Len(t, req.Worklogs, 3)
	for _, wl := range req.Worklogs {
		assert.Equal(t, 5, wl.Minutes)
		assert.Equal(t, "Code review", wl.Comment)
	}

	require.NotNil(t, check)
	assert.Equal(t, "In Review", check.TargetStatus)
	assert.Equal(t, []string{"In Review", "Code Review"}, check.TargetStatuses)
}

func TestPlanWorklogOnlyButtonSkipsCheck(t *testing.T) {
	svc, _ := newTestService(t, &sourcetest.Tracker{})

	req, check, err := svc.Plan(Action{IssueKeys: []string{"ABC-1"}, Button: "Log time", TotalMinutes: 30})
	require.NoError(t, err)

	assert.Empty(t, req.TransitionName)
	assert.Nil(t, check)
	require.Len(t, req.Worklogs, 1)
	assert.Equal(t, 30, req.Worklogs[0].Minutes)
}

func TestPlanUnknownButton(t *testing.T) {
	svc, _ := newTestService(t, &sourcetest.Tracker{})

	_, _, err := svc.Plan(Action{IssueKeys: []string{"ABC-1"}, Button: "Deploy"})
	assert.Error(t, err)
}

func TestRunJournalsOutcome(t *testing.T) {
	fake := &sourcetest.Tracker{Transitions: map[string][]source.Transition{
		"ABC-1": {{ID: "5", Name: "Code Review"}},
	}}
	svc, journal := newTestService(t, fake)
	ctx := context.Background()

	req, _, err := svc.Plan(Action{IssueKeys: []string{"ABC-1", "ABC-2"}, Button: "In Review"})
	require.NoError(t, err)

	result := svc.Run(ctx, "In Review", req)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)

	conns := fake.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "https://jira.example.com", conns[0].BaseURL)

	runs, err := journal.GetRuns(ctx, store.RunFilter{IssueKey: "abc-2"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "In Review", runs[0].Button)
	assert.Equal(t, "ABC-1,ABC-2", runs[0].IssueKeys)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Contains(t, runs[0].Errors, `transition "Code Review" not found`)

	history, err := svc.History(ctx, store.RunFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	one, err := svc.HistoryRun(ctx, " "+runs[0].ID+" ")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, runs[0].ID, one.ID)
	assert.Equal(t, "Code Review", one.TransitionName)

	missing, err := svc.HistoryRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRunWithoutConnectionFailsEveryIssue(t *testing.T) {
	fake := &sourcetest.Tracker{}
	settings := NewSettings(writeConfig(t, testConfig), memSecrets{})
	require.NoError(t, settings.Load())
	svc := NewService(settings, fake.Factory(), nil, log.New(io.Discard, "", 0))

	result := svc.Run(context.Background(), "", model.BatchRequest{
		IssueKeys:      []string{"ABC-1", "ABC-2"},
		TransitionName: "Done",
	})

	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no secret stored for jira:alice")
	assert.Empty(t, fake.Connections())
}

func TestRunWithoutBaseURLNamesTheField(t *testing.T) {
	fake := &sourcetest.Tracker{}
	settings := NewSettings(writeConfig(t, "jira:\n  username: alice\n"), memSecrets{"jira:alice": "s3cr3t"})
	require.NoError(t, settings.Load())
	svc := NewService(settings, fake.Factory(), nil, log.New(io.Discard, "", 0))

	result := svc.Run(context.Background(), "", model.BatchRequest{IssueKeys: []string{"ABC-1"}, TransitionName: "Done"})

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"jira connection is not configured: jira.base_url is empty"}, result.Errors)

	empty := svc.Run(context.Background(), "", model.BatchRequest{TransitionName: "Done"})
	assert.Equal(t, model.BatchResult{Errors: []string{batch.MsgNoIssueKeys}}, empty)
}

func TestButtonsForMergeRequest(t *testing.T) {
	svc, _ := newTestService(t, &sourcetest.Tracker{})

	visible := svc.Buttons(model.MRStatusMerged, "develop")
	require.Len(t, visible, 1)
	assert.Equal(t, "Testing", visible[0].Label)
	assert.Len(t, svc.Buttons("", ""), 3)
}

func TestAutoButtons(t *testing.T) {
	svc, _ := newTestService(t, &sourcetest.Tracker{})

	fired, err := svc.AutoButtons(model.ActionApprove, "main")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "Log time", fired[0].Label)

	fired, err = svc.AutoButtons(model.ActionMerge, "release/2")
	require.NoError(t, err)
	assert.Empty(t, fired)

	_, err = svc.AutoButtons(model.ActionMerge, " ")
	assert.Error(t, err)

	_, err = svc.AutoButtons("close", "main")
	assert.Error(t, err)
}
