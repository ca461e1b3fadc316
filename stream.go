package quill

import (
	"bufio"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// doneSentinel is the termination frame some upstreams emit before closing.
// It is tolerated and skipped; end of stream is the connection closing.
const doneSentinel = "[DONE]"

// streamDecoder turns the line stream of an open SSE response body into an
// ordered sequence of deltas while accumulating the full text. It reads one
// line at a time and never buffers the whole body.
type streamDecoder struct {
	scanner *bufio.Scanner
	log     *slog.Logger
	seq     int
	text    strings.Builder
	err     error
}

func newStreamDecoder(r io.Reader, log *slog.Logger) *streamDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &streamDecoder{scanner: sc, log: log}
}

// All yields every delta in arrival order. The sequence is lazy, finite and
// non-restartable; it must be consumed fully before Text is complete.
//
// Per line: blank lines and non-data SSE fields are frame separators and
// metadata, skipped. A data line that fails to parse as JSON is skipped with
// a warning so one malformed frame cannot abort the stream. A parsed frame
// contributes its first choice's delta content when non-empty.
func (d *streamDecoder) All() iter.Seq[Delta] {
	return func(yield func(Delta) bool) {
		for d.scanner.Scan() {
			line := strings.TrimRight(d.scanner.Text(), "\r")
			if line == "" {
				continue
			}
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "" || data == doneSentinel {
				continue
			}
			if !gjson.Valid(data) {
				d.log.Warn("skipping malformed stream frame", slog.Int("length", len(data)))
				continue
			}
			content := gjson.Get(data, "choices.0.delta.content").String()
			if content == "" {
				continue
			}
			delta := Delta{Seq: d.seq, Content: content}
			d.seq++
			d.text.WriteString(content)
			if !yield(delta) {
				return
			}
		}
		d.err = d.scanner.Err()
	}
}

// Text returns everything accumulated so far. After All has been consumed it
// is the final response text, truncated at the failure point if Err is set.
func (d *streamDecoder) Text() string {
	return d.text.String()
}

// Err reports the read error that ended the stream early, if any. A nil
// error means the stream ended with the connection closing normally.
func (d *streamDecoder) Err() error {
	return d.err
}
