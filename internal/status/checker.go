// Package status checks whether issues already sit in a target status
// before a transition batch is started.
package status

import (
	"context"
	"fmt"
	"strings"
	gosync "sync"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
)

// Checker classifies a set of issues against a target status.
type Checker struct {
	newTracker source.Factory
}

// NewChecker creates a Checker that builds trackers with newTracker.
func NewChecker(newTracker source.Factory) *Checker {
	return &Checker{newTracker: newTracker}
}

// Check fetches the status of every issue concurrently and compares it
// case-insensitively against the acceptable target names. A failed fetch
// is recorded in Errors and never blocks the other issues. Statuses are
// returned in input order.
func (c *Checker) Check(
	ctx context.Context,
	conn model.Connection,
	req model.StatusCheckRequest,
) model.StatusClassification {
	if len(req.IssueKeys) == 0 {
		return model.StatusClassification{Errors: []string{"No issue keys provided."}}
	}
	if !conn.Configured() {
		return model.StatusClassification{Errors: []string{source.ErrConfigurationMissing.Error()}}
	}

	targets := TargetNames(req)
	tracker := c.newTracker(conn)

	type outcome struct {
		status *model.IssueStatus
		err    error
	}
	outcomes := make([]outcome, len(req.IssueKeys))

	var wg gosync.WaitGroup
	for i, key := range req.IssueKeys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()

			current, err := tracker.GetStatus(ctx, key)
			if err != nil {
				outcomes[i] = outcome{err: fmt.Errorf("%s: %w", key, err)}
				return
			}
			outcomes[i] = outcome{status: &model.IssueStatus{
				IssueKey:      key,
				CurrentStatus: current,
				IsInTarget:    matchesAny(current, targets),
			}}
		}(i, key)
	}
	wg.Wait()

	result := model.StatusClassification{AllInTarget: true}
	for _, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, o.err.Error())
			result.AllInTarget = false
			continue
		}
		result.Statuses = append(result.Statuses, *o.status)
		if !o.status.IsInTarget {
			result.AllInTarget = false
		}
	}
	return result
}

// TargetNames returns the acceptable status names of a request: the
// primary target followed by the equivalents, trimmed and de-duplicated.
func TargetNames(req model.StatusCheckRequest) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range append([]string{req.TargetStatus}, req.TargetStatuses...) {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, n)
	}
	return names
}

func matchesAny(current string, targets []string) bool {
	for _, t := range targets {
		if strings.EqualFold(current, t) {
			return true
		}
	}
	return false
}
