package quill

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCompleteBuffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "user", gjson.GetBytes(body, "messages.0.role").String())
		assert.Equal(t, "say hello", gjson.GetBytes(body, "messages.0.content").String())
		assert.InDelta(t, 0.7, gjson.GetBytes(body, "temperature").Float(), 1e-9)
		assert.EqualValues(t, 16384, gjson.GetBytes(body, "max_tokens").Int())
		assert.False(t, gjson.GetBytes(body, "stream").Bool())

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, helloEnvelope)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, ExponentialBackoff{Unit: time.Millisecond})

	res, err := c.Complete(context.Background(), Request{Prompt: "say hello", Model: "gpt-4o"})
	require.NoError(t, err)

	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Streamed)
	assert.False(t, res.ContentMissing)
	assert.Equal(t, helloEnvelope, string(res.RawBody))
	assert.Equal(t, "assistant", res.Envelope.Get("choices.0.message.role").String())
	assert.NotZero(t, res.RunID)
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestCompleteBufferedContentMissing(t *testing.T) {
	const body = `{"choices":[{"message":{"role":"assistant"}}],"usage":{"total_tokens":0}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, ExponentialBackoff{Unit: time.Millisecond})

	res, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err, "an empty content field is a soft outcome, not an error")

	assert.True(t, res.ContentMissing)
	assert.Empty(t, res.Text)
	assert.Equal(t, body, string(res.RawBody))
}

func TestCompleteBufferedMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>definitely not json</html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, ExponentialBackoff{Unit: time.Millisecond})

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})

	var malformed *MalformedEnvelopeError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, string(malformed.RawBody), "not json")
}

func TestCompleteExtractsArtifacts(t *testing.T) {
	const content = "Here you go:\n```python\nprint('hi')\n```\nand a picture\n<svg width=\"1\"><rect/></svg>\n"
	envelope := `{"choices":[{"message":{"content":` + string(mustJSONString(content)) + `}}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, envelope)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, ExponentialBackoff{Unit: time.Millisecond})

	res, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, "py", res.Artifacts[0].Ext)
	assert.Equal(t, "print('hi')", string(res.Artifacts[0].Content))
	assert.Equal(t, "svg", res.Artifacts[1].Ext)
	assert.Equal(t, `<svg width="1"><rect/></svg>`, string(res.Artifacts[1].Content))
}

func TestNewDefaults(t *testing.T) {
	c, err := New("sk-test")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.NotNil(t, c.backoff)
	assert.NotNil(t, c.log)
}

func mustJSONString(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}
