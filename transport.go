package quill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/apimart/quill/pkg/slogx"
)

// Error bodies are kept for diagnostics but never read past this limit.
const maxCapturedBody = 1 << 20

type failureReason int

const (
	reasonServerError failureReason = iota
	reasonTimeout
	reasonConnection
	reasonInternal
)

func (r failureReason) String() string {
	switch r {
	case reasonServerError:
		return "server_error"
	case reasonTimeout:
		return "timeout"
	case reasonConnection:
		return "connection"
	default:
		return "internal"
	}
}

// outcome is the result of exactly one transport attempt. A terminal outcome
// carries the open response; every other outcome is retryable and carries the
// failure reason, plus the drained body for 5xx responses.
type outcome struct {
	resp    *http.Response
	status  int
	body    []byte
	reason  failureReason
	err     error
	elapsed time.Duration
}

func (o outcome) retryable() bool {
	return o.resp == nil
}

// sleepEligible reports whether the retry loop should back off before the
// next attempt. Unexpected faults burn budget without waiting, matching the
// reference behavior of treating them as conservatively retryable.
func (o outcome) sleepEligible() bool {
	return o.reason != reasonInternal
}

type transport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *slog.Logger
}

// attempt performs exactly one POST and classifies the result. It never
// sleeps; pacing between attempts belongs to the retry loop.
func (t *transport) attempt(ctx context.Context, attempt int, payload []byte, stream bool) outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return outcome{reason: reasonInternal, err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		reason := classifyTransportErr(err)
		t.log.Warn("attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("reason", reason.String()),
			slog.Duration("elapsed", elapsed),
			slogx.Error(err),
		)
		return outcome{reason: reason, err: err, elapsed: elapsed}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := readCapped(resp.Body, maxCapturedBody)
		resp.Body.Close()
		t.log.Warn("server error",
			slog.Int("attempt", attempt+1),
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", elapsed),
		)
		return outcome{
			status:  resp.StatusCode,
			body:    body,
			reason:  reasonServerError,
			err:     fmt.Errorf("server error: http %d", resp.StatusCode),
			elapsed: elapsed,
		}
	}

	t.log.Info("attempt succeeded",
		slog.Int("attempt", attempt+1),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", elapsed),
	)
	return outcome{resp: resp, status: resp.StatusCode, elapsed: elapsed}
}

// classifyTransportErr maps a transport failure onto the retry taxonomy.
// Anything unrecognized stays retryable so one unanticipated fault cannot
// abort the whole operation; the shared budget still bounds it.
func classifyTransportErr(err error) failureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return reasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return reasonTimeout
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return reasonConnection
	}
	return reasonInternal
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
