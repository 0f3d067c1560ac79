package cluster

import (
	"context"
	"errors"

	"github.com/chtzvt/backlogtrace/internal/tracer"
)

type ClusterStatus struct {
	Contexts []ContextStatus `json:"contexts"`
}

type ContextStatus struct {
	Context ContextInfo    `json:"context"`
	Tracer  *tracer.Status `json:"tracer,omitempty"`
}

// GetClusterStatus summarizes every registered context and its last published tracer status.
func (c *etcdCluster) GetClusterStatus(ctx context.Context) (*ClusterStatus, error) {
	contexts, err := c.ListContexts(ctx)
	if err != nil {
		return nil, err
	}
	out := &ClusterStatus{Contexts: make([]ContextStatus, 0, len(contexts))}
	for _, info := range contexts {
		cs := ContextStatus{Context: info}
		st, err := c.GetTracerStatus(ctx, info.Name)
		switch {
		case err == nil:
			cs.Tracer = st
		case errors.Is(err, ErrTracerUnavailable), errors.Is(err, ErrContextNotFound):
			// expired between list and get, or not yet published
		default:
			return nil, err
		}
		out.Contexts = append(out.Contexts, cs)
	}
	return out, nil
}
