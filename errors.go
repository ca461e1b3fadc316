package quill

import (
	"fmt"
	"net/http"
)

// StatusError is returned when the API answers with a terminal error status
// (anything below 500 that is not a success). These are never retried: the
// server handled the request and rejected it, so repeating it would yield
// the same answer. The raw body is kept for diagnostics.
type StatusError struct {
	Status   int
	Body     []byte
	Attempts int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with http %d after %d attempt(s)", e.Status, e.Attempts)
}

// RetriesExhaustedError is returned when every attempt in the retry budget
// failed with a retryable outcome. It carries the last observed failure so
// callers can report what the server (or the network) said last.
type RetriesExhaustedError struct {
	Attempts int

	// LastStatus and LastBody describe the final 5xx response, when the last
	// failure happened at the HTTP level. LastStatus is zero when the last
	// failure never produced a response.
	LastStatus int
	LastBody   []byte

	// LastErr is the final transport error, when the last failure was a
	// timeout, a connection fault, or an unexpected error.
	LastErr error
}

func (e *RetriesExhaustedError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("all %d attempt(s) failed, last response was http %d", e.Attempts, e.LastStatus)
	}
	return fmt.Sprintf("all %d attempt(s) failed: %v", e.Attempts, e.LastErr)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.LastErr
}

// GatewayTimeout reports whether the final failed attempt was a 504. Callers
// branch on this to suggest a faster model or a larger timeout instead of
// the generic server-error advice.
func (e *RetriesExhaustedError) GatewayTimeout() bool {
	return e.LastStatus == http.StatusGatewayTimeout
}

// MalformedEnvelopeError is returned when a buffered (non-streaming) success
// response does not contain valid JSON. The transport succeeded, so the
// request is not retried; the raw body is surfaced for diagnostics instead.
type MalformedEnvelopeError struct {
	RawBody []byte
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("response body is not valid JSON (%d bytes)", len(e.RawBody))
}
