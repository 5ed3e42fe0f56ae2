package backend

import (
	"context"
	"fmt"
	"time"
)

// Polling defaults. Callers override per request when the UI needs a
// different cadence.
const (
	DefaultPollInterval         = 500 * time.Millisecond
	DefaultMaxConsecutiveErrors = 3
)

// PollOptions configure one preview poll loop.
type PollOptions struct {
	// Interval between status checks. Zero means DefaultPollInterval.
	Interval time.Duration
	// MaxConsecutiveErrors ends the loop after that many status checks
	// fail in a row. Zero means DefaultMaxConsecutiveErrors.
	MaxConsecutiveErrors int
	// OnUpdate, if set, receives every successfully fetched status,
	// including the terminal one.
	OnUpdate func(PreviewStatus)
}

// PollPreview polls a preview request until it reaches a terminal state.
// The loop always terminates: on a terminal status, when the consecutive
// error budget runs out, or when ctx is done. The first check happens
// immediately, not one interval in.
func (c *Client) PollPreview(ctx context.Context, requestID string, opts PollOptions) (PreviewStatus, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxErrors := opts.MaxConsecutiveErrors
	if maxErrors <= 0 {
		maxErrors = DefaultMaxConsecutiveErrors
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		status, err := c.CheckPreview(ctx, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return PreviewStatus{}, ctx.Err()
			}
			consecutive++
			c.logger.Warn("preview status check failed",
				"request_id", requestID,
				"consecutive", consecutive,
				"error", err,
			)
			if consecutive >= maxErrors {
				return PreviewStatus{}, fmt.Errorf("preview polling gave up after %d consecutive errors: %w", consecutive, err)
			}
		} else {
			consecutive = 0
			if opts.OnUpdate != nil {
				opts.OnUpdate(status)
			}
			if status.Terminal() {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return PreviewStatus{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
