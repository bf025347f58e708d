package llm

import (
	"strings"
	"testing"
)

func TestDecodeOpenAIStream(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`: keep-alive comment`,
		`data: {not valid json`,
		`data: {"choices":[{"delta":{}}]}`,
		`data: [DONE]`,
	}, "\n")

	var chunks []string
	got, err := decodeOpenAIStream(strings.NewReader(body), func(c string) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("decodeOpenAIStream: %v", err)
	}
	if got != "Hello world" {
		t.Fatalf("accumulated = %q, want %q", got, "Hello world")
	}
	if len(chunks) != 2 || chunks[0] != "Hello" || chunks[1] != " world" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestDecodeOpenAIStreamNilCallback(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"ok"}}]}` + "\ndata: [DONE]\n"
	got, err := decodeOpenAIStream(strings.NewReader(body), nil)
	if err != nil {
		t.Fatalf("decodeOpenAIStream: %v", err)
	}
	if got != "ok" {
		t.Fatalf("accumulated = %q, want %q", got, "ok")
	}
}

func TestDecodeOllamaStream(t *testing.T) {
	body := strings.Join([]string{
		`{"response":"foo","done":false}`,
		`not-json`,
		`{"response":" bar","done":false}`,
		`{"response":"","done":true}`,
		`{"response":"after done, never seen","done":false}`,
	}, "\n")

	var chunks []string
	got, err := decodeOllamaStream(strings.NewReader(body), func(c string) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("decodeOllamaStream: %v", err)
	}
	if got != "foo bar" {
		t.Fatalf("accumulated = %q, want %q", got, "foo bar")
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestDecodeOllamaStreamError(t *testing.T) {
	body := `{"response":"partial","done":false}` + "\n" +
		`{"error":"model not found"}` + "\n"

	got, err := decodeOllamaStream(strings.NewReader(body), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("err = %v, want provider message", err)
	}
	if got != "partial" {
		t.Fatalf("accumulated = %q, want %q", got, "partial")
	}
}

func TestDecodeUnifiedStream(t *testing.T) {
	body := strings.Join([]string{
		`data: {"content":"<p>Hello</p>"}`,
		`data: {"content":" there"}`,
		`data: {"done":true}`,
	}, "\n")

	var chunks []string
	got, err := DecodeUnifiedStream(strings.NewReader(body), func(c string) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("DecodeUnifiedStream: %v", err)
	}
	if got != "Hello there" {
		t.Fatalf("accumulated = %q, want %q", got, "Hello there")
	}
	if len(chunks) != 2 || chunks[0] != "Hello" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestDecodeUnifiedStreamError(t *testing.T) {
	body := strings.Join([]string{
		`data: {"content":"partial"}`,
		`data: {"error":"rate limited"}`,
	}, "\n")

	got, err := DecodeUnifiedStream(strings.NewReader(body), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want server message", err)
	}
	if got != "partial" {
		t.Fatalf("accumulated = %q, want %q", got, "partial")
	}
}

func TestStripTags(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>wrapped</p>", "wrapped"},
		{"a <br/> b", "a  b"},
		{"x < y and y > z", "x  z"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripTags(tc.in); got != tc.want {
			t.Errorf("StripTags(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
