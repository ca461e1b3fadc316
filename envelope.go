package quill

import "github.com/tidwall/gjson"

// parseEnvelope parses a buffered success body once and extracts the first
// choice's message content. An invalid body is a terminal parse error: the
// transport already succeeded, so the request is not retried and the raw
// body travels with the error. An empty content field is not an error here;
// the caller surfaces it as a distinct soft outcome.
func parseEnvelope(body []byte) (gjson.Result, string, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, "", &MalformedEnvelopeError{RawBody: body}
	}
	env := gjson.ParseBytes(body)
	return env, env.Get("choices.0.message.content").String(), nil
}
