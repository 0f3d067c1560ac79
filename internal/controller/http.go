package controller

import (
	"context"
	"net/http"

	"github.com/chtzvt/backlogtrace/internal/api"
	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

// APIController resolves contexts through a head node.
type APIController struct {
	client *api.Client
}

func NewAPIController(client *api.Client) *APIController {
	return &APIController{client: client}
}

func (c *APIController) Lookup(ctx context.Context, name string) (Instance, error) {
	if err := cluster.ValidateName(name); err != nil {
		return nil, &NotFoundError{Name: name}
	}
	if _, err := c.client.GetContext(ctx, name); err != nil {
		if api.IsStatus(err, http.StatusNotFound) || api.IsStatus(err, http.StatusBadRequest) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, &NotFoundError{Name: name, Err: err}
	}
	return &apiInstance{name: name, client: c.client}, nil
}

func (c *APIController) ListContexts(ctx context.Context) ([]cluster.ContextInfo, error) {
	return c.client.ListContexts(ctx)
}

type apiInstance struct {
	name   string
	client *api.Client
}

func (i *apiInstance) Name() string { return i.name }

func (i *apiInstance) TracerStatus(ctx context.Context) (*tracer.Status, error) {
	st, err := i.client.GetTracerStatus(ctx, i.name)
	if err != nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer status", Err: err}
	}
	return st, nil
}

func (i *apiInstance) TracerBacklog(ctx context.Context, nodeID string) ([]tracer.Event, error) {
	events, err := i.client.GetBacklog(ctx, i.name, nodeID)
	if err != nil {
		return nil, &BackendError{Instance: i.name, Op: "tracer dump", Err: err}
	}
	return events, nil
}

func (i *apiInstance) ConfigureTracer(ctx context.Context, ctl tracer.Control) error {
	if err := i.client.SetTracerControl(ctx, i.name, ctl); err != nil {
		return &BackendError{Instance: i.name, Op: "tracer control", Err: err}
	}
	return nil
}
