package quill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestMaxTokensFor(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gemini-3-pro-preview-11-2025", 65536},
		{"gpt-4o", 16384},
		{"gpt-4", 8192},
		{"claude-3-5-sonnet", 8192},
		{"claude-3-haiku", 4096},
		{"some-unknown-model", 4096},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxTokensFor(tt.model), tt.model)
	}
}

func TestReadTimeoutFor(t *testing.T) {
	assert.Equal(t, 300*time.Second, ReadTimeoutFor("gemini-3-pro-preview-11-2025", false))
	assert.Equal(t, 120*time.Second, ReadTimeoutFor("claude-3-opus", false))
	assert.Equal(t, 60*time.Second, ReadTimeoutFor("gpt-4o", false))
	// Streaming always gets the long timeout, whatever the model.
	assert.Equal(t, 300*time.Second, ReadTimeoutFor("gpt-4o", true))
}

func TestRequestNormalize(t *testing.T) {
	r := Request{Prompt: "hi"}.normalize()

	assert.Equal(t, DefaultModel, r.Model)
	assert.Equal(t, DefaultConnectTimeout, r.ConnectTimeout)
	assert.Equal(t, 300*time.Second, r.ReadTimeout)
	assert.Equal(t, DefaultMaxRetries, r.MaxRetries)
	assert.Equal(t, 65536, r.maxTokens)
	assert.NotZero(t, r.RunID())
}

func TestRequestNormalizeKeepsExplicitValues(t *testing.T) {
	r := Request{
		Prompt:         "hi",
		Model:          "gpt-4o",
		Stream:         true,
		ConnectTimeout: 3 * time.Second,
		ReadTimeout:    time.Minute,
		MaxRetries:     2,
	}.normalize()

	assert.Equal(t, "gpt-4o", r.Model)
	assert.Equal(t, 3*time.Second, r.ConnectTimeout)
	assert.Equal(t, time.Minute, r.ReadTimeout)
	assert.Equal(t, 2, r.MaxRetries)
	assert.Equal(t, 16384, r.maxTokens)
}

func TestRequestPayload(t *testing.T) {
	r := Request{Prompt: "write code", Model: "gpt-4o", Stream: true}.normalize()

	body, err := r.payload()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", gjson.GetBytes(body, "model").String())
	assert.EqualValues(t, 1, gjson.GetBytes(body, "messages.#").Int())
	assert.Equal(t, "write code", gjson.GetBytes(body, "messages.0.content").String())
	assert.InDelta(t, 0.7, gjson.GetBytes(body, "temperature").Float(), 1e-9)
	assert.EqualValues(t, 16384, gjson.GetBytes(body, "max_tokens").Int())
	assert.True(t, gjson.GetBytes(body, "stream").Bool())
}
