package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"validoc/internal/port"
)

// circuitState tracks rate-limit backoff for a single advisor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackAdvisor tries advisors in order, skipping those with open circuits.
// It implements port.Advisor.
type FallbackAdvisor struct {
	advisors []port.Advisor
	circuits []*circuitState
	names    []string

	// OnFallback, if set, is invoked with the provider name whenever an
	// advisor fails or is skipped and the next one is tried.
	OnFallback func(name string)
}

// NewFallbackAdvisor creates a FallbackAdvisor from an ordered list of advisors and their names.
func NewFallbackAdvisor(advisors []port.Advisor, names []string) *FallbackAdvisor {
	circuits := make([]*circuitState, len(advisors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackAdvisor{
		advisors: advisors,
		circuits: circuits,
		names:    names,
	}
}

func (f *FallbackAdvisor) Review(ctx context.Context, prompt string) (string, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, a := range f.advisors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("advisor.FallbackAdvisor: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			if f.OnFallback != nil {
				f.OnFallback(f.names[i])
			}
			continue
		}

		out, err := a.Review(ctx, prompt)
		if err == nil {
			return out, nil
		}

		log.Printf("advisor.FallbackAdvisor: %s failed: %v", f.names[i], err)
		lastErr = err
		if f.OnFallback != nil {
			f.OnFallback(f.names[i])
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil {
		// All advisors were skipped due to open circuits
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return "", NewRateLimitError("all", fmt.Errorf("all advisors rate limited"), int(retryAfter.Seconds()))
	}

	if allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return "", NewRateLimitError("all", fmt.Errorf("all advisors rate limited"), int(retryAfter.Seconds()))
	}

	return "", fmt.Errorf("all advisors failed: %w", lastErr)
}
