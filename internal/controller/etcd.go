package controller

import (
	"context"
	"errors"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

// ClusterController resolves contexts directly against the etcd registry.
type ClusterController struct {
	cl cluster.Cluster
}

func NewClusterController(cl cluster.Cluster) *ClusterController {
	return &ClusterController{cl: cl}
}

func (c *ClusterController) Lookup(ctx context.Context, name string) (Instance, error) {
	if _, err := c.cl.GetContext(ctx, name); err != nil {
		if errors.Is(err, cluster.ErrContextNotFound) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, &NotFoundError{Name: name, Err: err}
	}
	return &clusterInstance{name: name, cl: c.cl}, nil
}

func (c *ClusterController) ListContexts(ctx context.Context) ([]cluster.ContextInfo, error) {
	return c.cl.ListContexts(ctx)
}

type clusterInstance struct {
	name string
	cl   cluster.Cluster
}

func (i *clusterInstance) Name() string { return i.name }

func (i *clusterInstance) TracerStatus(ctx context.Context) (*tracer.Status, error) {
	st, err := i.cl.GetTracerStatus(ctx, i.name)
	if err != nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer status", Err: err}
	}
	return st, nil
}

// TracerBacklog returns the last published backlog. Published backlogs are
// snapshots, so remove-on-dump is applied by the hosting agent, not here.
func (i *clusterInstance) TracerBacklog(ctx context.Context, nodeID string) ([]tracer.Event, error) {
	events, err := i.cl.GetBacklog(ctx, i.name)
	if err != nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer dump", Err: err}
	}
	return filterNode(events, nodeID), nil
}

func (i *clusterInstance) ConfigureTracer(ctx context.Context, ctl tracer.Control) error {
	if err := i.cl.SetTracerControl(ctx, i.name, ctl); err != nil {
		return &BackendError{Instance: i.name, Op: "tracer control", Err: err}
	}
	return nil
}

func filterNode(events []tracer.Event, nodeID string) []tracer.Event {
	if nodeID == "" {
		return events
	}
	out := make([]tracer.Event, 0, len(events))
	for _, ev := range events {
		if ev.NodeID == nodeID {
			out = append(out, ev)
		}
	}
	return out
}
