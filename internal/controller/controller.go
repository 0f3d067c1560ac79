// Package controller resolves context names to live instances and exposes
// their backlog tracer. Implementations exist for in-process tracers, the
// etcd registry, and the head node HTTP API.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

var (
	ErrInstanceNotFound = errors.New("instance not found")
	ErrBackend          = errors.New("backend error")
)

type Controller interface {
	// Lookup resolves name to a live instance. Failures match ErrInstanceNotFound.
	Lookup(ctx context.Context, name string) (Instance, error)
}

// Lister is implemented by controllers that can enumerate their instances.
type Lister interface {
	ListContexts(ctx context.Context) ([]cluster.ContextInfo, error)
}

// Instance is a handle to one live context. Failures match ErrBackend.
type Instance interface {
	Name() string
	TracerStatus(ctx context.Context) (*tracer.Status, error)
	TracerBacklog(ctx context.Context, nodeID string) ([]tracer.Event, error)
	ConfigureTracer(ctx context.Context, ctl tracer.Control) error
}

// NotFoundError reports a name that did not resolve. Err is set when the
// registry could not be reached at all.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("context %q could not be resolved: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("context %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrInstanceNotFound }

// BackendError reports a failed tracer operation on a resolved instance.
type BackendError struct {
	Instance string
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s failed for context %q: %v", e.Op, e.Instance, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }
