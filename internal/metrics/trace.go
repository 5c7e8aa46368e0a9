package metrics

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// TraceEntry is one serialized stage span.
type TraceEntry struct {
	RunID      string    `json:"run_id,omitempty"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// Span is an open stage measurement.
type Span interface {
	End(err error)
}

// Tracer writes stage spans as JSON lines and retains them for inspection.
// A nil writer only retains.
type Tracer struct {
	mu       sync.Mutex
	entries  []TraceEntry
	enc      *json.Encoder
	observer interface {
		Observe(ctx context.Context, stage string, success bool, d time.Duration)
	}
}

// NewTracer returns a tracer writing to w. When rec is not nil every span is
// also observed as a stage duration.
func NewTracer(w io.Writer, rec *Recorder) *Tracer {
	t := &Tracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	if rec != nil {
		t.observer = rec
	}
	return t
}

// Entries returns a copy of all recorded spans.
func (t *Tracer) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start opens a span for stage.
func (t *Tracer) Start(ctx context.Context, runID, stage string) Span {
	return &span{ctx: ctx, tracer: t, runID: runID, stage: stage, started: time.Now().UTC()}
}

type span struct {
	ctx     context.Context
	tracer  *Tracer
	runID   string
	stage   string
	started time.Time
}

func (s *span) End(err error) {
	ended := time.Now().UTC()
	entry := TraceEntry{
		RunID:      s.runID,
		Stage:      s.stage,
		Status:     outcome(err == nil),
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if s.tracer.observer != nil {
		s.tracer.observer.Observe(s.ctx, s.stage, err == nil, ended.Sub(s.started))
	}
	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}
