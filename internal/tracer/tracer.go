// Package tracer implements the backlog tracer facility hosted by each
// integration context: a bounded queue of recent trace events plus the
// configuration that decides which exchanges are captured.
package tracer

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultBacklogSize  = 1000
	DefaultBodyMaxChars = 128 * 1024
)

type Config struct {
	Enabled            bool   `json:"enabled" mapstructure:"enabled"`
	BacklogSize        int    `json:"backlog_size" mapstructure:"backlog_size"`
	RemoveOnDump       bool   `json:"remove_on_dump" mapstructure:"remove_on_dump"`
	BodyMaxChars       int    `json:"body_max_chars" mapstructure:"body_max_chars"`
	BodyIncludeStreams bool   `json:"body_include_streams" mapstructure:"body_include_streams"`
	BodyIncludeFiles   bool   `json:"body_include_files" mapstructure:"body_include_files"`
	TracePattern       string `json:"trace_pattern,omitempty" mapstructure:"trace_pattern"`
	TraceFilter        string `json:"trace_filter,omitempty" mapstructure:"trace_filter"`
}

// DefaultConfig returns a disabled tracer configuration with the stock limits.
func DefaultConfig() Config {
	return Config{
		BacklogSize:      DefaultBacklogSize,
		RemoveOnDump:     true,
		BodyMaxChars:     DefaultBodyMaxChars,
		BodyIncludeFiles: true,
	}
}

// Status is a point-in-time view of a tracer. Summary carries an already
// formatted status for backends that do not expose structured fields.
type Status struct {
	Context            string    `json:"context"`
	Enabled            bool      `json:"enabled"`
	TracePattern       string    `json:"trace_pattern,omitempty"`
	TraceFilter        string    `json:"trace_filter,omitempty"`
	BacklogSize        int       `json:"backlog_size"`
	RemoveOnDump       bool      `json:"remove_on_dump"`
	BodyMaxChars       int       `json:"body_max_chars"`
	BodyIncludeStreams bool      `json:"body_include_streams"`
	BodyIncludeFiles   bool      `json:"body_include_files"`
	TraceCounter       int64     `json:"trace_counter"`
	QueueSize          int       `json:"queue_size"`
	LastUpdated        time.Time `json:"last_updated"`
	Summary            string    `json:"summary,omitempty"`
}

// Structured reports whether the status carries more than an opaque summary.
func (s Status) Structured() bool {
	return s.Summary == "" || s.Context != ""
}

// Event is a single traced exchange at a given node.
type Event struct {
	UID        string            `json:"uid" cbor:"1,keyasint"`
	Timestamp  time.Time         `json:"timestamp" cbor:"2,keyasint"`
	RouteID    string            `json:"route_id" cbor:"3,keyasint"`
	NodeID     string            `json:"node_id" cbor:"4,keyasint"`
	ExchangeID string            `json:"exchange_id" cbor:"5,keyasint"`
	Headers    map[string]string `json:"headers,omitempty" cbor:"6,keyasint,omitempty"`
	Body       string            `json:"body,omitempty" cbor:"7,keyasint,omitempty"`
	BodyKind   BodyKind          `json:"body_kind,omitempty" cbor:"8,keyasint,omitempty"`
	Truncated  bool              `json:"truncated,omitempty" cbor:"9,keyasint,omitempty"`
}

type BodyKind string

const (
	BodyText   BodyKind = ""
	BodyStream BodyKind = "stream"
	BodyFile   BodyKind = "file"
)

// Control changes a running tracer. Nil fields are left untouched.
type Control struct {
	Enabled      bool    `json:"enabled"`
	TracePattern *string `json:"trace_pattern,omitempty"`
	TraceFilter  *string `json:"trace_filter,omitempty"`
	BacklogSize  *int    `json:"backlog_size,omitempty"`
	RemoveOnDump *bool   `json:"remove_on_dump,omitempty"`
}

type BacklogTracer struct {
	name string

	mu      sync.Mutex
	cfg     Config
	match   matcher
	queue   []Event
	counter int64
	updated time.Time
}

func New(name string, cfg Config) *BacklogTracer {
	if cfg.BacklogSize <= 0 {
		cfg.BacklogSize = DefaultBacklogSize
	}
	if cfg.BodyMaxChars <= 0 {
		cfg.BodyMaxChars = DefaultBodyMaxChars
	}
	return &BacklogTracer{
		name:    name,
		cfg:     cfg,
		match:   compileMatcher(cfg.TracePattern, cfg.TraceFilter),
		updated: time.Now().UTC(),
	}
}

func (t *BacklogTracer) Name() string { return t.name }

// Record offers an event to the backlog. It returns false when the tracer is
// disabled or the event does not match the pattern and filter. Stream and file
// bodies are blanked unless their kind is included.
func (t *BacklogTracer) Record(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled || !t.match.accepts(ev) {
		return false
	}
	switch ev.BodyKind {
	case BodyStream:
		if !t.cfg.BodyIncludeStreams {
			ev.Body = ""
		}
	case BodyFile:
		if !t.cfg.BodyIncludeFiles {
			ev.Body = ""
		}
	}
	if body, cut := truncateChars(ev.Body, t.cfg.BodyMaxChars); cut {
		ev.Body = body
		ev.Truncated = true
	}
	if ev.UID == "" {
		ev.UID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	t.counter++
	t.queue = append(t.queue, ev)
	if over := len(t.queue) - t.cfg.BacklogSize; over > 0 {
		t.queue = append(t.queue[:0:0], t.queue[over:]...)
	}
	t.updated = ev.Timestamp
	return true
}

func (t *BacklogTracer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Context:            t.name,
		Enabled:            t.cfg.Enabled,
		TracePattern:       t.cfg.TracePattern,
		TraceFilter:        t.cfg.TraceFilter,
		BacklogSize:        t.cfg.BacklogSize,
		RemoveOnDump:       t.cfg.RemoveOnDump,
		BodyMaxChars:       t.cfg.BodyMaxChars,
		BodyIncludeStreams: t.cfg.BodyIncludeStreams,
		BodyIncludeFiles:   t.cfg.BodyIncludeFiles,
		TraceCounter:       t.counter,
		QueueSize:          len(t.queue),
		LastUpdated:        t.updated,
	}
}

// Dump returns the buffered events for nodeID, or all events when nodeID is
// empty. Returned events are removed from the backlog when RemoveOnDump is set.
func (t *BacklogTracer) Dump(nodeID string) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Event, 0, len(t.queue))
	keep := t.queue[:0:0]
	for _, ev := range t.queue {
		if nodeID == "" || ev.NodeID == nodeID {
			out = append(out, ev)
		} else {
			keep = append(keep, ev)
		}
	}
	if t.cfg.RemoveOnDump {
		t.queue = keep
	}
	return out
}

// Snapshot returns a copy of the backlog without removing anything.
func (t *BacklogTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.queue...)
}

func (t *BacklogTracer) DumpAll() []Event { return t.Dump("") }

func (t *BacklogTracer) ResetCounter() {
	t.mu.Lock()
	t.counter = 0
	t.mu.Unlock()
}

func (t *BacklogTracer) Clear() {
	t.mu.Lock()
	t.queue = nil
	t.mu.Unlock()
}

// Apply reconfigures the tracer. Shrinking the backlog evicts the oldest events.
func (t *BacklogTracer) Apply(c Control) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cfg.Enabled = c.Enabled
	if c.TracePattern != nil {
		t.cfg.TracePattern = strings.TrimSpace(*c.TracePattern)
	}
	if c.TraceFilter != nil {
		t.cfg.TraceFilter = strings.TrimSpace(*c.TraceFilter)
	}
	if c.BacklogSize != nil && *c.BacklogSize > 0 {
		t.cfg.BacklogSize = *c.BacklogSize
		if over := len(t.queue) - t.cfg.BacklogSize; over > 0 {
			t.queue = append(t.queue[:0:0], t.queue[over:]...)
		}
	}
	if c.RemoveOnDump != nil {
		t.cfg.RemoveOnDump = *c.RemoveOnDump
	}
	t.match = compileMatcher(t.cfg.TracePattern, t.cfg.TraceFilter)
	t.updated = time.Now().UTC()
}

// truncateChars keeps the first limit runes of s.
func truncateChars(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
