// Package batch applies one batch of Jira transitions and worklogs and
// aggregates the outcome.
//
// Transitions fan out concurrently, one goroutine per issue. Worklogs run
// strictly in input order: each one reserves a free slot in the day
// before it is posted, so the next worklog's slot search sees it. The
// busy-interval snapshot is taken once per batch; worklogs written by
// other clients while the batch runs are not detected.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	gosync "sync"
	"time"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/schedule"
	"github.com/nhle/devflow/internal/source"
)

// Messages returned for batches that never reach the tracker.
const (
	MsgNoIssueKeys = "No Jira issue keys provided."
	MsgNothingToDo = "Nothing to do."
)

// Orchestrator runs batches. It holds no per-batch state and may run
// several batches concurrently.
type Orchestrator struct {
	newTracker source.Factory
	now        func() time.Time
	logger     *log.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the clock used to anchor worklog slots.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the logger for batch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator that talks to trackers built by newTracker.
func New(newTracker source.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		newTracker: newTracker,
		now:        time.Now,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MissingConfiguration is the result of a batch that cannot reach Jira:
// every issue counts as failed and the single error line names cause.
func MissingConfiguration(issueKeys []string, cause error) model.BatchResult {
	if cause == nil {
		cause = source.ErrConfigurationMissing
	}
	msg := cause.Error()
	if !errors.Is(cause, source.ErrConfigurationMissing) {
		msg = fmt.Sprintf("%s: %s", source.ErrConfigurationMissing, msg)
	}
	return model.BatchResult{Failed: len(issueKeys), Errors: []string{msg}}
}

// Submit starts the batch and returns a channel that delivers exactly one
// result and is then closed.
func (o *Orchestrator) Submit(
	ctx context.Context,
	conn model.Connection,
	req model.BatchRequest,
) <-chan model.BatchResult {
	ch := make(chan model.BatchResult, 1)
	go func() {
		defer close(ch)
		ch <- o.Run(ctx, conn, req)
	}()
	return ch
}

// Run applies the batch and blocks until every sub-operation finished.
// Failures are collected into the result and never stop sibling
// operations; each requested operation is attempted exactly once.
func (o *Orchestrator) Run(
	ctx context.Context,
	conn model.Connection,
	req model.BatchRequest,
) model.BatchResult {
	if len(req.IssueKeys) == 0 {
		return model.BatchResult{Errors: []string{MsgNoIssueKeys}}
	}

	if !conn.Configured() {
		return MissingConfiguration(req.IssueKeys, fmt.Errorf(
			"%w: set the Jira base URL and credentials", source.ErrConfigurationMissing,
		))
	}

	transitionName := strings.TrimSpace(req.TransitionName)
	var transitionKeys []string
	if transitionName != "" {
		transitionKeys = req.IssueKeys
	}

	var worklogs []model.WorklogRequest
	for _, wl := range req.Worklogs {
		if wl.Minutes > 0 {
			worklogs = append(worklogs, wl)
		}
	}

	if len(transitionKeys) == 0 && len(worklogs) == 0 {
		return model.BatchResult{Errors: []string{MsgNothingToDo}}
	}

	o.logger.Printf(
		"batch: %d transition(s) to %q, %d worklog(s)",
		len(transitionKeys), transitionName, len(worklogs),
	)

	tracker := o.newTracker(conn)
	col := &collector{result: model.BatchResult{Errors: []string{}}}

	var wg gosync.WaitGroup
	for _, key := range transitionKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			col.record(o.transition(ctx, tracker, key, transitionName))
		}(key)
	}

	if len(worklogs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.logWork(ctx, tracker, worklogs, col)
		}()
	}

	wg.Wait()

	result := col.snapshot()
	o.logger.Printf("batch done: %d succeeded, %d failed", result.Success, result.Failed)
	return result
}

// transition applies the transition whose name matches name
// case-insensitively.
func (o *Orchestrator) transition(
	ctx context.Context,
	tracker source.Tracker,
	key string,
	name string,
) error {
	available, err := tracker.ListTransitions(ctx, key)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	names := make([]string, 0, len(available))
	for _, t := range available {
		if strings.EqualFold(t.Name, name) {
			if err := tracker.ApplyTransition(ctx, key, t.ID); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			return nil
		}
		names = append(names, t.Name)
	}

	return &source.TransitionNotFoundError{IssueKey: key, Name: name, Available: names}
}

// logWork posts worklogs one after another, reserving each slot before
// the post is issued.
func (o *Orchestrator) logWork(
	ctx context.Context,
	tracker source.Tracker,
	worklogs []model.WorklogRequest,
	col *collector,
) {
	busy, err := tracker.TodayWorklogs(ctx)
	if err != nil {
		o.logger.Printf("worklog snapshot unavailable, scheduling without conflicts: %v", err)
		busy = nil
	}

	slots := schedule.NewReservation(busy, o.now())
	for _, wl := range worklogs {
		duration := time.Duration(wl.Minutes) * time.Minute
		start := slots.Reserve(duration)

		err := tracker.PostWorklog(ctx, wl.IssueKey, start, wl.Minutes, wl.Comment)
		if err != nil {
			err = fmt.Errorf("%s: worklog: %w", wl.IssueKey, err)
		}
		col.record(err)
	}
}

// collector accumulates sub-operation outcomes from concurrent goroutines.
type collector struct {
	mu     gosync.Mutex
	result model.BatchResult
}

func (c *collector) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.result.Failed++
		c.result.Errors = append(c.result.Errors, err.Error())
		return
	}
	c.result.Success++
}

func (c *collector) snapshot() model.BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.result
	out.Errors = append([]string{}, c.result.Errors...)
	return out
}
