// Package schedule splits requested worklog time across issues and places
// worklogs into free, 5-minute-aligned slots of the user's day.
package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/nhle/devflow/internal/model"
)

// Step is the quantum every allocation and slot start is aligned to.
const Step = 5 * time.Minute

const stepMillis = int64(Step / time.Millisecond)

// MaxAttempts bounds the slot search to one day's worth of steps.
const MaxAttempts = 288

// DistributeMinutes splits total across count issues left to right. Each
// share is the remaining time divided by the issues left, rounded up to a
// multiple of 5 with a floor of 5. The sum may exceed total by the
// accumulated rounding but is never less. count <= 0 yields nil.
func DistributeMinutes(total, count int) []int {
	if count <= 0 {
		return nil
	}

	allocations := make([]int, 0, count)
	remaining := total
	for i := 0; i < count; i++ {
		share := float64(remaining) / float64(count-i)
		rounded := int(math.Ceil(share/5)) * 5
		if rounded < 5 {
			rounded = 5
		}
		allocations = append(allocations, rounded)
		remaining -= rounded
	}
	return allocations
}

// PlanWorklogs builds one worklog request per issue key with the minutes
// from DistributeMinutes. total <= 0 means no worklogs.
func PlanWorklogs(issueKeys []string, total int, comment string) []model.WorklogRequest {
	if total <= 0 || len(issueKeys) == 0 {
		return nil
	}
	allocations := DistributeMinutes(total, len(issueKeys))
	out := make([]model.WorklogRequest, len(issueKeys))
	for i, key := range issueKeys {
		out[i] = model.WorklogRequest{IssueKey: key, Minutes: allocations[i], Comment: comment}
	}
	return out
}

// RoundUpTo5Minutes returns t unchanged when its epoch milliseconds are an
// exact multiple of five minutes, otherwise the next such instant.
func RoundUpTo5Minutes(t time.Time) time.Time {
	ms := t.UnixMilli()
	rem := ms % stepMillis
	if rem == 0 {
		return time.UnixMilli(ms).In(t.Location())
	}
	return time.UnixMilli(ms + stepMillis - rem).In(t.Location())
}

// FindFreeSlot returns the earliest start at or after proposed where
// [start, start+duration) overlaps none of busy. On overlap the candidate
// moves to the end of the hit interval rounded up to five minutes and the
// scan restarts. After MaxAttempts the proposed start is returned and the
// overlap accepted. busy is sorted in place by start.
func FindFreeSlot(busy []model.BusyInterval, proposed time.Time, duration time.Duration) time.Time {
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	candidate := proposed
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		end := candidate.Add(duration)
		hit := false
		for _, b := range busy {
			if b.Overlaps(candidate, end) {
				candidate = RoundUpTo5Minutes(b.End).In(proposed.Location())
				hit = true
				break
			}
		}
		if !hit {
			return candidate
		}
	}
	return proposed
}

// Reservation allocates sequential, mutually non-overlapping slots from
// one busy-interval snapshot. It is owned by a single batch and is not
// safe for concurrent use.
type Reservation struct {
	busy   []model.BusyInterval
	anchor time.Time
}

// NewReservation copies the snapshot and anchors every search at now
// rounded up to five minutes.
func NewReservation(snapshot []model.BusyInterval, now time.Time) *Reservation {
	busy := make([]model.BusyInterval, len(snapshot))
	copy(busy, snapshot)
	return &Reservation{busy: busy, anchor: RoundUpTo5Minutes(now)}
}

// Reserve finds a free slot of duration and registers it as busy before
// returning its start.
func (r *Reservation) Reserve(duration time.Duration) time.Time {
	start := FindFreeSlot(r.busy, r.anchor, duration)
	r.busy = append(r.busy, model.BusyInterval{Start: start, End: start.Add(duration)})
	return start
}
