package quill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/apimart/quill/extract"
	"github.com/apimart/quill/pkg/slogx"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
)

// Client sends chat-completion queries to a single endpoint with a static
// bearer credential. It is safe for sequential reuse; each Complete call
// processes one request start to finish with its own connection and its own
// accumulator, so no state is shared between invocations.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	backoff    Backoff
	log        *slog.Logger
}

var (
	// WithEndpoint overrides the chat-completions URL.
	WithEndpoint = opts.ForName[Client, string]("endpoint")

	// WithHTTPClient replaces the per-request HTTP client. When set, the
	// request's connect and read timeouts are the caller's responsibility.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")

	// WithBackoff replaces the retry backoff policy.
	WithBackoff = opts.ForName[Client, Backoff]("backoff")

	// WithLogger replaces the logger used for attempt, retry and stream
	// events. Defaults to slog.Default().
	WithLogger = opts.ForName[Client, *slog.Logger]("log")
)

// New creates a client for the given API key.
func New(apiKey string, options ...opts.Option[Client]) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		backoff:  ExponentialBackoff{},
		log:      slog.Default(),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, fmt.Errorf("apply client options: %w", err)
	}
	return c, nil
}

// Complete sends one request and returns its Response. Transient failures
// (timeouts, connection errors, 5xx) are retried under the request's budget
// with exponential backoff; terminal error statuses surface as *StatusError,
// an exhausted budget as *RetriesExhaustedError, and an unparseable buffered
// body as *MalformedEnvelopeError.
//
// For streaming requests the request's OnDelta callback observes each delta
// as it arrives; the returned Response holds the fully accumulated text. A
// body that fails mid-stream yields a Response truncated at that point
// rather than a retry, which would duplicate deltas already delivered.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	req = req.normalize()
	log := c.log.With(
		slog.String("run_id", req.runID.String()),
		slog.String("model", req.Model),
	)
	log.Info("starting completion",
		slog.Bool("stream", req.Stream),
		slog.Int("max_retries", req.MaxRetries),
		slog.Duration("read_timeout", req.ReadTimeout),
	)

	payload, err := req.payload()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	t := &transport{
		endpoint: c.endpoint,
		apiKey:   c.apiKey,
		client:   c.httpClientFor(req),
		log:      log,
	}

	start := time.Now()
	resp, attempts, err := c.send(ctx, t, payload, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readCapped(resp.Body, maxCapturedBody)
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Body: body, Attempts: attempts}
	}

	res := &Response{
		RunID:    req.runID,
		Model:    req.Model,
		Status:   resp.StatusCode,
		Attempts: attempts,
		Streamed: req.Stream,
	}

	if req.Stream {
		if err := c.consumeStream(ctx, resp.Body, req, res, log); err != nil {
			return nil, err
		}
	} else {
		if err := c.consumeEnvelope(resp.Body, res, log); err != nil {
			return nil, err
		}
	}

	res.Elapsed = time.Since(start)
	res.CreatedAt = strfmt.DateTime(time.Now())
	res.Artifacts = extract.Artifacts(res.Text)
	log.Info("completion finished",
		slog.Int("attempts", res.Attempts),
		slog.Duration("elapsed", res.Elapsed),
		slog.Int("text_length", len(res.Text)),
		slog.Int("artifacts", len(res.Artifacts)),
	)
	return res, nil
}

func (c *Client) consumeStream(ctx context.Context, body io.ReadCloser, req Request, res *Response, log *slog.Logger) error {
	defer body.Close()

	dec := newStreamDecoder(body, log)
	for delta := range dec.All() {
		if req.OnDelta != nil {
			req.OnDelta(delta)
		}
	}
	// Cancellation surfaces as an aborted read; report it as the caller's
	// cancellation rather than a truncated response.
	if err := ctx.Err(); err != nil {
		return err
	}
	res.Text = dec.Text()
	if err := dec.Err(); err != nil {
		res.Truncated = true
		log.Warn("stream ended early, response truncated", slogx.Error(err))
	}
	return nil
}

func (c *Client) consumeEnvelope(body io.ReadCloser, res *Response, log *slog.Logger) error {
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	res.RawBody = raw

	env, content, err := parseEnvelope(raw)
	if err != nil {
		return err
	}
	res.Envelope = env
	if content == "" {
		res.ContentMissing = true
		log.Warn("response envelope has no content", slog.Int("body_length", len(raw)))
		return nil
	}
	res.Text = content
	return nil
}

// httpClientFor builds the HTTP client for one request. Buffered requests
// get an overall deadline covering the body read; streaming requests only
// bound connection establishment and the wait for response headers, since
// the body is expected to stay open while deltas arrive.
func (c *Client) httpClientFor(req Request) *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	hc := &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: req.ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   req.ConnectTimeout,
			ResponseHeaderTimeout: req.ReadTimeout,
		},
	}
	if !req.Stream {
		hc.Timeout = req.ConnectTimeout + req.ReadTimeout
	}
	return hc
}
