package quill

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// send drives transport attempts under the backoff policy until a terminal
// outcome: an open response (any status below 500), an exhausted retry
// budget, or caller cancellation. It owns all sleeping between attempts.
//
// The attempt count it returns includes the successful attempt, so a request
// that succeeds first try reports 1.
func (c *Client) send(ctx context.Context, t *transport, payload []byte, req Request) (*http.Response, int, error) {
	var last outcome
	for attempt := 0; attempt < req.MaxRetries; attempt++ {
		out := t.attempt(ctx, attempt, payload, req.Stream)
		if !out.retryable() {
			return out.resp, attempt + 1, nil
		}
		last = out

		if err := ctx.Err(); err != nil {
			return nil, attempt + 1, err
		}
		if attempt+1 < req.MaxRetries && out.sleepEligible() {
			delay := c.backoff.Delay(attempt)
			t.log.Warn("retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", req.MaxRetries),
				slog.Duration("delay", delay),
				slog.String("reason", out.reason.String()),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, attempt + 1, err
			}
		}
	}

	return nil, req.MaxRetries, &RetriesExhaustedError{
		Attempts:   req.MaxRetries,
		LastStatus: last.status,
		LastBody:   last.body,
		LastErr:    last.err,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
