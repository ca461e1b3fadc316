package quill

import (
	"time"

	"github.com/apimart/quill/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	// DefaultEndpoint is the chat-completions endpoint requests are sent to.
	DefaultEndpoint = "https://api.apimart.ai/v1/chat/completions"

	// DefaultModel is used when a request does not name a model.
	DefaultModel = "gemini-3-pro-preview-11-2025"

	// DefaultMaxRetries is the retry budget when a request does not set one.
	DefaultMaxRetries = 5

	// DefaultConnectTimeout bounds connection establishment per attempt.
	DefaultConnectTimeout = 10 * time.Second

	defaultReadTimeout = 60 * time.Second
	streamReadTimeout  = 300 * time.Second

	defaultMaxTokens = 4096
	temperature      = 0.7
)

// modelMaxTokens maps a model name to its completion token ceiling.
// Models not listed fall back to defaultMaxTokens.
var modelMaxTokens = map[string]int{
	"gpt-4o":                       16384,
	"gpt-4o-mini":                  16384,
	"gpt-4-turbo":                  4096,
	"gpt-4":                        8192,
	"gpt-3.5-turbo":                4096,
	"claude-3-5-sonnet":            8192,
	"claude-3-opus":                4096,
	"claude-3-sonnet":              4096,
	"claude-3-haiku":               4096,
	"gemini-3-pro-preview-11-2025": 65536,
	"gemini-2-pro":                 8192,
	"gemini-pro":                   8192,
}

// modelReadTimeouts holds per-model read timeouts for buffered requests.
// Slow models get more headroom before an attempt counts as timed out.
var modelReadTimeouts = map[string]time.Duration{
	"gemini-3-pro-preview-11-2025": 300 * time.Second,
	"gemini-2-pro":                 120 * time.Second,
	"claude-3-opus":                120 * time.Second,
}

// MaxTokensFor resolves the completion token ceiling for a model.
func MaxTokensFor(model string) int {
	if n, ok := modelMaxTokens[model]; ok {
		return n
	}
	return defaultMaxTokens
}

// ReadTimeoutFor resolves the read timeout for a model. Streaming requests
// always get the streaming timeout regardless of model.
func ReadTimeoutFor(model string, stream bool) time.Duration {
	if stream {
		return streamReadTimeout
	}
	if d, ok := modelReadTimeouts[model]; ok {
		return d
	}
	return defaultReadTimeout
}

// Request describes one chat-completion query. Zero fields are resolved to
// defaults when the request is submitted; after that the request is treated
// as immutable for the rest of the invocation.
type Request struct {
	// Prompt is the user message sent to the model.
	Prompt string

	// Model names the model to query. Empty selects DefaultModel.
	Model string

	// Stream selects incremental server-sent-event delivery instead of a
	// single buffered JSON response.
	Stream bool

	// ConnectTimeout bounds connection establishment for each attempt.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for the response. Zero resolves through
	// ReadTimeoutFor.
	ReadTimeout time.Duration

	// MaxRetries is the total attempt budget, including the first attempt.
	MaxRetries int

	// OnDelta, when set on a streaming request, is invoked once per delta in
	// arrival order. It lets callers write output incrementally while the
	// response is still being produced.
	OnDelta func(Delta)

	runID     uuid.UUID
	maxTokens int
}

// RunID identifies this invocation in log events. It is assigned when the
// request is submitted.
func (r Request) RunID() uuid.UUID {
	return r.runID
}

func (r Request) normalize() Request {
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = DefaultConnectTimeout
	}
	if r.ReadTimeout <= 0 {
		r.ReadTimeout = ReadTimeoutFor(r.Model, r.Stream)
	}
	if r.MaxRetries <= 0 {
		r.MaxRetries = DefaultMaxRetries
	}
	r.maxTokens = MaxTokensFor(r.Model)
	r.runID = uuidx.New()
	return r
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

func (r Request) payload() ([]byte, error) {
	return json.Marshal(chatPayload{
		Model:       r.Model,
		Messages:    []chatMessage{{Role: "user", Content: r.Prompt}},
		Temperature: temperature,
		MaxTokens:   r.maxTokens,
		Stream:      r.Stream,
	})
}
