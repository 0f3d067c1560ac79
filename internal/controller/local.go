package controller

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

var errTracerMissing = errors.New("no backlog tracer installed")

// Local is a thread-safe in-process mapping of context names to tracers.
type Local struct {
	mu      sync.RWMutex
	tracers map[string]*tracer.BacklogTracer
	host    string
}

func NewLocal() *Local {
	host, _ := os.Hostname()
	return &Local{tracers: make(map[string]*tracer.BacklogTracer), host: host}
}

// Add registers tr under its own name, replacing any previous tracer.
func (l *Local) Add(tr *tracer.BacklogTracer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracers[tr.Name()] = tr
}

// Install registers name without a tracer; status queries on it fail with ErrBackend.
func (l *Local) Install(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tracers[name]; !ok {
		l.tracers[name] = nil
	}
}

func (l *Local) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tracers, name)
}

func (l *Local) Lookup(ctx context.Context, name string) (Instance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tr, ok := l.tracers[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &localInstance{name: name, tr: tr}, nil
}

func (l *Local) ListContexts(ctx context.Context) ([]cluster.ContextInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]cluster.ContextInfo, 0, len(l.tracers))
	for name := range l.tracers {
		out = append(out, cluster.ContextInfo{Name: name, Host: l.host})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type localInstance struct {
	name string
	tr   *tracer.BacklogTracer
}

func (i *localInstance) Name() string { return i.name }

func (i *localInstance) TracerStatus(ctx context.Context) (*tracer.Status, error) {
	if i.tr == nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer status", Err: errTracerMissing}
	}
	st := i.tr.Status()
	return &st, nil
}

func (i *localInstance) TracerBacklog(ctx context.Context, nodeID string) ([]tracer.Event, error) {
	if i.tr == nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer dump", Err: errTracerMissing}
	}
	return i.tr.Dump(nodeID), nil
}

func (i *localInstance) ConfigureTracer(ctx context.Context, ctl tracer.Control) error {
	if i.tr == nil {
		return &BackendError{Instance: i.name, Op: "tracer control", Err: errTracerMissing}
	}
	i.tr.Apply(ctl)
	return nil
}
