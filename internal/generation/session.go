// Package generation drives the per-field and batch generation workflows:
// prompt assembly from the element dependency table, streaming calls through
// the provider client, and a small phase machine per field.
package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/promptdoc"
	"github.com/promptforge/promptforge-backend/internal/types"
)

// Phase is the lifecycle state of one field's generation.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePending    Phase = "pending"
	PhaseThinking   Phase = "thinking"
	PhaseGenerating Phase = "generating"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Terminal reports whether p is a resting state. Success and error are both
// resumable: a new generation run re-enters thinking.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}

// Engine holds the collaborators a generation run needs. One Engine serves
// any number of concurrent sessions; it carries no per-run state.
type Engine struct {
	docs   *promptdoc.Store
	client *llm.Client
	log    *logger.Logger
}

func NewEngine(docs *promptdoc.Store, client *llm.Client, log *logger.Logger) *Engine {
	return &Engine{
		docs:   docs,
		client: client,
		log:    log.With("component", "GenerationEngine"),
	}
}

// Session is the transient state of one field's generation. It is created per
// field, may be re-run (regenerate or retry), and is discarded on Close.
// Chunks arriving after Close are ignored.
type Session struct {
	mu     sync.Mutex
	field  element.Type
	phase  Phase
	buf    strings.Builder
	errMsg string
	closed bool
	bus    *Bus
}

// NewSession creates an idle session for field. bus may be nil when no one
// listens for live updates.
func NewSession(field element.Type, bus *Bus) *Session {
	return &Session{field: field, phase: PhaseIdle, bus: bus}
}

func (s *Session) Field() element.Type { return s.field }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetContent replaces the accumulated content with a manual edit. Edits are
// rejected while a stream is actively appending.
func (s *Session) SetContent(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session is closed")
	}
	if s.phase == PhaseGenerating || s.phase == PhaseThinking {
		return fmt.Errorf("content is read-only while generating")
	}
	s.buf.Reset()
	s.buf.WriteString(content)
	return nil
}

// Confirm hands the accumulated content to the caller and closes the session.
// Empty or whitespace-only content is rejected and the session stays open.
func (s *Session) Confirm() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("session is closed")
	}
	content := s.buf.String()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no generated content to confirm")
	}
	s.closed = true
	return content, nil
}

// Close tears the session down. In-flight chunks and results arriving after
// Close are dropped; the network call itself is not aborted here.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseError
	s.errMsg = msg
	field := s.field
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventPhase, Field: field, Phase: PhaseError, Error: msg})
	}
}

// appendChunk transitions thinking to generating on the first fragment,
// resetting the buffer at that boundary, then appends.
func (s *Session) appendChunk(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	transitioned := false
	if s.phase == PhaseThinking {
		s.phase = PhaseGenerating
		s.buf.Reset()
		transitioned = true
	}
	s.buf.WriteString(text)
	field := s.field
	s.mu.Unlock()

	if s.bus != nil {
		if transitioned {
			s.bus.Publish(Event{Kind: EventPhase, Field: field, Phase: PhaseGenerating})
		}
		s.bus.Publish(Event{Kind: EventChunk, Field: field, Content: text})
	}
}

// Params configures one generation run.
type Params struct {
	Provider    *types.APIProvider
	Topic       string
	Values      map[element.Type]string // final values of already-built fields
	Temperature *float64                // nil means the client default; 0 is honored as given
	MaxTokens   int
	OnChunk     func(string) // optional extra consumer for live fragments
}

// Generate runs one field generation on s. Preconditions (topic present,
// template available, template not an HTML page, provider configured) fail
// into the error phase with a message instead of returning transport errors
// to the caller; the returned error mirrors the phase for convenience.
func (e *Engine) Generate(ctx context.Context, s *Session, p Params) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	if s.phase == PhaseThinking || s.phase == PhaseGenerating {
		s.mu.Unlock()
		return fmt.Errorf("generation already in progress")
	}
	s.phase = PhaseThinking
	s.errMsg = ""
	field := s.field
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventPhase, Field: field, Phase: PhaseThinking})
	}

	if strings.TrimSpace(p.Topic) == "" {
		s.fail("topic is required before generating")
		return fmt.Errorf("topic is required before generating")
	}
	if p.Provider == nil {
		s.fail("no provider configured")
		return fmt.Errorf("no provider configured")
	}

	tmpl := e.docs.Get(ctx, field)
	if tmpl == "" {
		msg := fmt.Sprintf("prompt template for %s is unavailable", element.Label(field))
		s.fail(msg)
		return fmt.Errorf("%s", msg)
	}
	if promptdoc.LooksLikeHTMLPage(tmpl) {
		msg := fmt.Sprintf("prompt template for %s is not usable", element.Label(field))
		s.fail(msg)
		return fmt.Errorf("%s", msg)
	}

	placeholders := element.Placeholders(field, p.Topic, p.Values)
	prompt := element.Substitute(tmpl, placeholders)

	e.log.Debug("Generating field",
		"field", string(field),
		"provider", p.Provider.Name,
		"prompt_len", len(prompt))

	content, err := e.client.Generate(ctx, llm.Request{
		Provider:    p.Provider,
		Prompt:      prompt,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}, func(chunk string) {
		s.appendChunk(chunk)
		if p.OnChunk != nil {
			p.OnChunk(chunk)
		}
	})
	if err != nil {
		e.log.Warn("Field generation failed", "field", string(field), "error", err)
		s.fail(err.Error())
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	// A provider may answer without ever streaming a fragment; make the
	// buffer authoritative with the full result either way.
	s.buf.Reset()
	s.buf.WriteString(content)
	s.phase = PhaseSuccess
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventPhase, Field: field, Phase: PhaseSuccess})
	}
	return nil
}
