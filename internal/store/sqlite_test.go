package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devflow/internal/model"
)

// newTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

func TestRecordRunAndGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	id, err := s.RecordRun(ctx, model.RunRecord{
		Button:         "In Review",
		TransitionName: "Code Review",
		IssueKeys:      "ABC-1,ABC-2",
		WorklogMinutes: 10,
		Success:        3,
		Failed:         1,
		Errors:         "ABC-2: transition \"Code Review\" not found. Available: Done",
		StartedAt:      started,
		FinishedAt:     started.Add(2 * time.Second),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	run, err := s.GetRunByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "In Review", run.Button)
	assert.Equal(t, "ABC-1,ABC-2", run.IssueKeys)
	assert.Equal(t, 3, run.Success)
	assert.Equal(t, 1, run.Failed)
	assert.True(t, started.Equal(run.StartedAt))
}

func TestGetRunByIDMissing(t *testing.T) {
	s := newTestStore(t)

	run, err := s.GetRunByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestGetRunsNewestFirstAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	for i, keys := range []string{"ABC-1", "ABC-2,XYZ-9", "abc-1"} {
		_, err := s.RecordRun(ctx, model.RunRecord{
			IssueKeys:  keys,
			Success:    i,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := s.GetRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].Success)
	assert.Equal(t, 0, all[2].Success)

	limited, err := s.GetRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 1, limited[0].Success)

	forKey, err := s.GetRuns(ctx, RunFilter{IssueKey: "abc-1"})
	require.NoError(t, err)
	require.Len(t, forKey, 2)
	assert.Equal(t, 2, forKey[0].Success)
	assert.Equal(t, 0, forKey[1].Success)
}
