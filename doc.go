/*
Package quill is a resilient query client for the API Mart chat-completions
endpoint. It sends a single prompt, rides out transient network and server
failures with bounded exponential-backoff retries, supports both buffered
JSON and incrementally streamed (server-sent event) responses, and extracts
embedded artifacts (fenced code blocks, SVG and HTML fragments) from the
returned text.

# Basic Usage

	client, err := quill.New(os.Getenv("APIMART_API_KEY"))
	if err != nil {
		// Handle error
	}

	res, err := client.Complete(ctx, quill.Request{
		Prompt: "write a go function that reverses a string",
		Model:  "gpt-4o",
	})
	if err != nil {
		// Handle error
	}
	fmt.Println(res.Text)

Streaming delivery with an incremental observer:

	res, err := client.Complete(ctx, quill.Request{
		Prompt: "explain quantum entanglement",
		Stream: true,
		OnDelta: func(d quill.Delta) {
			fmt.Print(d.Content)
		},
	})

# Architecture

The client is organized around a few small components:

  - Backoff: pure policy computing the wait before each retry (doubling,
    no jitter, no cap)
  - Transport: performs exactly one HTTP attempt and classifies the outcome
    as terminal or retryable; it never sleeps
  - Retry loop: drives attempts under the request budget and owns all
    sleeping; statuses below 500 are terminal, everything else is retried
  - Stream decoder: lazily turns SSE data frames into ordered text deltas,
    skipping malformed frames instead of aborting
  - Extractor (package extract): derives named artifacts from the final text

Failures surface as typed errors: *StatusError for terminal error statuses,
*RetriesExhaustedError when the budget runs out (with a 504 distinguishable
from other last failures so callers can give targeted advice), and
*MalformedEnvelopeError when a buffered body is not JSON.

Library code logs through log/slog; binaries are expected to install their
own handler (cmd/quill bridges to zerolog).
*/
package quill
