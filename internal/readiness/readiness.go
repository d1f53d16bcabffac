// Package readiness waits for a remote dependency to answer before work
// is started against it.
package readiness

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Probe checks the dependency once.
type Probe func(ctx context.Context) error

// probeTimeout bounds a single probe call.
const probeTimeout = 15 * time.Second

// Poll runs probe up to attempts times, interval apart, and returns nil
// on the first success. When every attempt fails the last error is
// returned. A non-positive interval retries immediately. A cancelled ctx
// stops polling.
func Poll(ctx context.Context, attempts int, interval time.Duration, probe Probe) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = runProbe(ctx, probe)
		if lastErr == nil {
			return nil
		}
		if attempt >= attempts {
			break
		}
		log.Printf("readiness attempt %d/%d failed: %v", attempt, attempts, lastErr)

		if err := wait(ctx, interval); err != nil {
			return err
		}
	}

	return fmt.Errorf("not ready after %d attempt(s): %w", attempts, lastErr)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func runProbe(ctx context.Context, probe Probe) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return probe(ctx)
}
