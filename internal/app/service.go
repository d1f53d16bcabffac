package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nhle/devflow/internal/batch"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/schedule"
	"github.com/nhle/devflow/internal/source"
	"github.com/nhle/devflow/internal/status"
	"github.com/nhle/devflow/internal/store"
)

// Action is one user request: a set of issues plus either a button preset
// or an explicit transition, and the total minutes to log.
type Action struct {
	IssueKeys []string

	// Button is the preset label. When set, the preset provides the
	// transition name and worklog comment.
	Button string

	// TransitionName overrides the preset's transition.
	TransitionName string

	// TotalMinutes is split across the issues. Zero means no worklogs.
	TotalMinutes int

	// Comment overrides the preset's worklog comment.
	Comment string
}

// Service wires settings, the batch orchestrator, the status checker and
// the optional run journal.
type Service struct {
	settings *Settings
	batches  *batch.Orchestrator
	checker  *status.Checker
	journal  store.Store
	logger   *log.Logger
	now      func() time.Time
}

// NewService creates a Service. journal may be nil to skip journaling.
func NewService(
	settings *Settings,
	newTracker source.Factory,
	journal store.Store,
	logger *log.Logger,
) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		settings: settings,
		batches:  batch.New(newTracker, batch.WithLogger(logger)),
		checker:  status.NewChecker(newTracker),
		journal:  journal,
		logger:   logger,
		now:      time.Now,
	}
}

// Settings returns the settings the service reads from.
func (s *Service) Settings() *Settings {
	return s.settings
}

// Plan turns an action into a batch request and the status check that
// should precede it. The check is nil when no transition is requested.
func (s *Service) Plan(a Action) (model.BatchRequest, *model.StatusCheckRequest, error) {
	cfg := s.settings.Config()
	if cfg == nil {
		return model.BatchRequest{}, nil, fmt.Errorf("%w: settings not loaded", source.ErrConfigurationMissing)
	}

	var preset model.Button
	if a.Button != "" {
		b, ok := model.FindButton(cfg.Buttons, a.Button)
		if !ok {
			return model.BatchRequest{}, nil, fmt.Errorf("unknown button %q", a.Button)
		}
		preset = b
	}

	transition := strings.TrimSpace(a.TransitionName)
	if transition == "" {
		transition = preset.TransitionName
	}
	comment := a.Comment
	if comment == "" {
		comment = preset.WorklogComment
	}

	req := model.BatchRequest{
		IssueKeys:      a.IssueKeys,
		TransitionName: transition,
	}
	if cfg.Worklog.Enabled {
		req.Worklogs = schedule.PlanWorklogs(a.IssueKeys, a.TotalMinutes, comment)
	}

	if transition == "" {
		return req, nil, nil
	}

	check := &model.StatusCheckRequest{IssueKeys: a.IssueKeys, TargetStatus: transition}
	if a.Button != "" && strings.EqualFold(transition, preset.TransitionName) {
		if names := preset.TargetStatusNames(); len(names) > 0 {
			check.TargetStatus = names[0]
			check.TargetStatuses = names
		}
	}
	return req, check, nil
}

// Buttons returns the presets shown for a merge request in mrStatus
// targeting branch. Empty values match every preset.
func (s *Service) Buttons(mrStatus, branch string) []model.Button {
	cfg := s.settings.Config()
	if cfg == nil {
		return nil
	}
	return model.VisibleButtons(cfg.Buttons, mrStatus, branch)
}

// AutoButtons returns the presets fired by a review action on a merge
// request targeting branch, in configuration order.
func (s *Service) AutoButtons(action, branch string) ([]model.Button, error) {
	if !model.IsAction(action) {
		return nil, fmt.Errorf(
			"unknown review action %q (want %s, %s or %s)",
			action, model.ActionApprove, model.ActionMerge, model.ActionSubmitReview,
		)
	}
	if strings.TrimSpace(branch) == "" {
		return nil, fmt.Errorf("the target branch is required for %s actions", action)
	}
	cfg := s.settings.Config()
	if cfg == nil {
		return nil, fmt.Errorf("%w: settings not loaded", source.ErrConfigurationMissing)
	}
	return model.AutoButtons(cfg.Buttons, action, branch), nil
}

// Check runs a status precondition check against the current connection.
func (s *Service) Check(ctx context.Context, req model.StatusCheckRequest) model.StatusClassification {
	conn, err := s.settings.Connection()
	if err != nil {
		s.logger.Printf("status check without connection: %v", err)
	}
	return s.checker.Check(ctx, conn, req)
}

// Submit starts the batch and returns the channel delivering its result.
// The run is journaled once the result is available. Without a usable
// connection every issue fails with the reason the connection is missing.
func (s *Service) Submit(ctx context.Context, label string, req model.BatchRequest) <-chan model.BatchResult {
	started := s.now()

	var inner <-chan model.BatchResult
	conn, err := s.settings.Connection()
	if err != nil && len(req.IssueKeys) > 0 {
		s.logger.Printf("batch without connection: %v", err)
		rejected := make(chan model.BatchResult, 1)
		rejected <- batch.MissingConfiguration(req.IssueKeys, err)
		close(rejected)
		inner = rejected
	} else {
		inner = s.batches.Submit(ctx, conn, req)
	}
	out := make(chan model.BatchResult, 1)
	go func() {
		defer close(out)
		result := <-inner
		s.record(ctx, label, req, result, started)
		out <- result
	}()
	return out
}

// Run is the blocking form of Submit.
func (s *Service) Run(ctx context.Context, label string, req model.BatchRequest) model.BatchResult {
	return <-s.Submit(ctx, label, req)
}

// History returns journaled runs, newest first.
func (s *Service) History(ctx context.Context, filter store.RunFilter) ([]model.RunRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.GetRuns(ctx, filter)
}

// HistoryRun returns one journaled run, or nil when id is unknown or the
// journal is disabled.
func (s *Service) HistoryRun(ctx context.Context, id string) (*model.RunRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.GetRunByID(ctx, strings.TrimSpace(id))
}

// record writes the outcome to the journal. Journal failures never
// change the batch result.
func (s *Service) record(
	ctx context.Context,
	label string,
	req model.BatchRequest,
	result model.BatchResult,
	started time.Time,
) {
	if s.journal == nil {
		return
	}

	minutes := 0
	for _, wl := range req.Worklogs {
		if wl.Minutes > 0 {
			minutes += wl.Minutes
		}
	}

	_, err := s.journal.RecordRun(ctx, model.RunRecord{
		Button:         label,
		TransitionName: req.TransitionName,
		IssueKeys:      strings.Join(req.IssueKeys, ","),
		WorklogMinutes: minutes,
		Success:        result.Success,
		Failed:         result.Failed,
		Errors:         strings.Join(result.Errors, "\n"),
		StartedAt:      started,
		FinishedAt:     s.now(),
	})
	if err != nil {
		s.logger.Printf("failed to journal run: %v", err)
	}
}
