package store

import (
	"context"

	"github.com/nhle/devflow/internal/model"
)

// RunFilter controls pagination for journal queries.
type RunFilter struct {
	// IssueKey restricts results to runs that touched this key.
	IssueKey string
	Limit    int
	Offset   int
}

// Store defines the persistence interface for the run journal.
type Store interface {
	RecordRun(ctx context.Context, run model.RunRecord) (string, error)
	GetRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)
	GetRunByID(ctx context.Context, id string) (*model.RunRecord, error)
	Close() error
}
