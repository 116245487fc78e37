package llm

import (
	"bytes"
	"context"
	"encoding/json"

	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
)

const (
	// dataPrefix marks lines that carry an event payload.
	dataPrefix = "data:"

	// endMarker is the explicit textual end-of-stream marker. It is
	// skipped, not parsed; transport EOF is what actually ends the stream.
	endMarker = "[DONE]"
)

// streamDecoder turns raw transport chunks into content deltas. It is the
// explicit state machine behind a streaming request: bytes arrive via
// onData, line framing is reassembled across chunk boundaries in buf, and
// the client produces the terminal event once the transport completes.
//
// A single malformed line never aborts an otherwise-healthy stream; it is
// logged at debug level and skipped.
type streamDecoder struct {
	adapter Adapter
	logger  llmhttp.Logger

	buf      []byte
	received bool
	deltas   int
	chars    int
}

func newStreamDecoder(adapter Adapter, logger llmhttp.Logger) *streamDecoder {
	return &streamDecoder{adapter: adapter, logger: logger}
}

// onData consumes one transport chunk, emitting a content delta for every
// complete parseable event line. It returns false when emit reports that
// the caller has gone away, so the read loop can stop immediately.
func (d *streamDecoder) onData(ctx context.Context, chunk []byte, emit func(StreamEvent) bool) bool {
	if len(chunk) > 0 {
		d.received = true
	}
	d.buf = append(d.buf, chunk...)

	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return true
		}
		line := bytes.TrimSpace(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		if len(line) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			// Event-name and comment lines carry no content.
			continue
		}

		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if len(payload) == 0 || string(payload) == endMarker {
			continue
		}

		text, ok := d.adapter.ExtractDelta(payload)
		if !ok {
			if !json.Valid(payload) && d.logger != nil {
				d.logger.LogDiscard(ctx, llmhttp.DiscardLog{
					Provider: d.adapter.Name(),
					Line:     string(line),
				})
			}
			continue
		}

		d.deltas++
		d.chars += len(text)
		if !emit(StreamEvent{Type: EventContentDelta, Delta: text}) {
			return false
		}
	}
}
