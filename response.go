package quill

import (
	"time"

	"github.com/apimart/quill/extract"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Delta is one incremental fragment of streamed assistant text. Deltas are
// delivered strictly in arrival order; Seq is their zero-based position.
type Delta struct {
	Seq     int
	Content string
}

// Response is the result of a successful query. Exactly one Response is
// produced per request that reaches a success outcome. Artifacts are derived
// from Text and never authoritative: losing them does not affect Text.
type Response struct {
	// RunID correlates the response with the log events of its invocation.
	RunID uuid.UUID

	// Model is the model that produced the response.
	Model string

	// Status is the raw HTTP status of the successful attempt.
	Status int

	// Text is the complete assistant output. For streaming requests it is
	// the concatenation of every delta in order.
	Text string

	// Attempts is how many transport attempts the request consumed.
	Attempts int

	// Elapsed is the wall-clock time from first attempt to full response.
	Elapsed time.Duration

	// CreatedAt is when the response was assembled.
	CreatedAt strfmt.DateTime

	// Streamed records which delivery mode produced the response.
	Streamed bool

	// Truncated is set when a streaming body failed mid-read. The text holds
	// everything received up to the failure; the attempt is not retried since
	// retrying would duplicate deltas already delivered.
	Truncated bool

	// ContentMissing is set when a buffered response parsed as JSON but had
	// an empty or absent content field. RawBody holds the body for display.
	// This is a soft outcome, not an error.
	ContentMissing bool

	// RawBody is the unparsed body of a buffered response.
	RawBody []byte

	// Envelope is the parsed JSON envelope of a buffered response, retained
	// so callers can persist it verbatim.
	Envelope gjson.Result

	// Artifacts are the structured fragments extracted from Text.
	Artifacts []extract.Artifact
}
