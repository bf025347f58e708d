package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// StreamEnvelope is the unified SSE frame emitted by the generation proxy
// endpoint regardless of which provider produced the content. Exactly one
// terminal frame is sent per stream: done=true on success or error set on
// failure.
type StreamEnvelope struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DecodeUnifiedStream consumes a unified envelope stream. It is the
// client-side counterpart of the proxy endpoint's stream writer, exported for
// Go consumers of that endpoint; the server itself only emits the envelope.
// Content fragments are tag-stripped before being passed to onChunk and
// accumulated; an error frame aborts decoding and discards nothing already
// received.
func DecodeUnifiedStream(r io.Reader, onChunk func(string)) (string, error) {
	var full strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var frame StreamEnvelope
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		if frame.Error != "" {
			return full.String(), fmt.Errorf("generation failed: %s", frame.Error)
		}
		if frame.Content != "" {
			text := StripTags(frame.Content)
			if text != "" {
				full.WriteString(text)
				if onChunk != nil {
					onChunk(text)
				}
			}
		}
		if frame.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}
