package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/types"
)

// FieldStatus is one field's slot in a batch: its phase, the text produced so
// far, and the failure message when the phase is error.
type FieldStatus struct {
	Phase   Phase  `json:"phase"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Batch runs all six fields through the single-field path in the fixed
// dependency order, threading each field's final content into the placeholder
// inputs of the fields after it. One provider is chosen at construction and
// used for the whole run.
type Batch struct {
	engine   *Engine
	provider *types.APIProvider
	topic    string
	bus      *Bus

	mu      sync.Mutex
	fields  map[element.Type]*FieldStatus
	current element.Type
	running bool
	closed  bool
}

func NewBatch(engine *Engine, provider *types.APIProvider, topic string, bus *Bus) *Batch {
	fields := make(map[element.Type]*FieldStatus, len(element.Order))
	for _, t := range element.Order {
		fields[t] = &FieldStatus{Phase: PhasePending}
	}
	return &Batch{
		engine:   engine,
		provider: provider,
		topic:    topic,
		bus:      bus,
		fields:   fields,
	}
}

// Run executes the batch sequentially. The first failing field aborts the
// rest: the failed field ends in error, fields after it stay pending, and
// fields already generated keep their success content. The returned error
// reports the first failure; a fully successful run returns nil.
func (b *Batch) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("batch is closed")
	}
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("batch already running")
	}
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	values := make(map[element.Type]string, len(element.Order))
	for _, field := range element.Order {
		if b.Closed() {
			return fmt.Errorf("batch is closed")
		}

		b.setCurrent(field)
		b.updateField(field, func(st *FieldStatus) {
			st.Phase = PhaseThinking
			st.Content = ""
			st.Error = ""
		})

		session := NewSession(field, b.bus)
		err := b.engine.Generate(ctx, session, Params{
			Provider: b.provider,
			Topic:    b.topic,
			Values:   values,
			OnChunk: func(chunk string) {
				b.updateField(field, func(st *FieldStatus) {
					st.Phase = PhaseGenerating
					st.Content += chunk
				})
			},
		})
		if err != nil {
			b.updateField(field, func(st *FieldStatus) {
				st.Phase = PhaseError
				st.Error = session.Err()
				if st.Error == "" {
					st.Error = err.Error()
				}
			})
			b.publishProgress()
			return fmt.Errorf("generate %s: %w", element.Label(field), err)
		}

		content := session.Content()
		values[field] = content
		b.updateField(field, func(st *FieldStatus) {
			st.Phase = PhaseSuccess
			st.Content = content
			st.Error = ""
		})
		b.publishProgress()
	}
	return nil
}

// Snapshot returns a copy of every field's status.
func (b *Batch) Snapshot() map[element.Type]FieldStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[element.Type]FieldStatus, len(b.fields))
	for t, st := range b.fields {
		out[t] = *st
	}
	return out
}

// Current returns the field the batch is working on, or "" before the run.
func (b *Batch) Current() element.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Progress is the share of fields in a terminal phase, 0 through 1.
func (b *Batch) Progress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

func (b *Batch) progressLocked() float64 {
	done := 0
	for _, st := range b.fields {
		if st.Phase.Terminal() {
			done++
		}
	}
	return float64(done) / float64(len(element.Order))
}

// Confirm returns the successfully generated fields. Fields in any other
// phase are filtered out; zero successes is a rejection, keeping the batch
// open so the caller can retry.
func (b *Batch) Confirm() (map[element.Type]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("batch is closed")
	}

	out := make(map[element.Type]string)
	for t, st := range b.fields {
		if st.Phase == PhaseSuccess {
			out[t] = st.Content
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no fields were generated successfully")
	}
	b.closed = true
	return out, nil
}

// Close discards the batch. A run still in flight notices at its next field
// boundary; the active network call is left to finish and its result dropped.
func (b *Batch) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Batch) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Batch) setCurrent(t element.Type) {
	b.mu.Lock()
	b.current = t
	b.mu.Unlock()
}

func (b *Batch) updateField(t element.Type, fn func(*FieldStatus)) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	fn(b.fields[t])
	b.mu.Unlock()
}

func (b *Batch) publishProgress() {
	if b.bus == nil {
		return
	}
	b.mu.Lock()
	progress := b.progressLocked()
	b.mu.Unlock()
	b.bus.Publish(Event{Kind: EventProgress, Progress: progress})
}
