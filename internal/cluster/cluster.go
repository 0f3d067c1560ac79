package cluster

import (
	"context"

	"github.com/chtzvt/backlogtrace/internal/tracer"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type Cluster interface {
	// Context registry
	RegisterContext(ctx context.Context, info ContextInfo) (contextID string, err error)
	ListContexts(ctx context.Context) ([]ContextInfo, error)
	GetContext(ctx context.Context, name string) (*ContextInfo, error)
	HeartbeatContext(ctx context.Context, name string) error
	DeregisterContext(ctx context.Context, name string) error
	GetClusterStatus(ctx context.Context) (*ClusterStatus, error)

	// Tracer publication
	PublishTracerStatus(ctx context.Context, name string, status tracer.Status) error
	GetTracerStatus(ctx context.Context, name string) (*tracer.Status, error)
	PublishBacklog(ctx context.Context, name string, events []tracer.Event) error
	GetBacklog(ctx context.Context, name string) ([]tracer.Event, error)
	SetTracerControl(ctx context.Context, name string, ctl tracer.Control) error
	WatchTracerControl(ctx context.Context, name string) <-chan tracer.Control

	Prefix() string
	Client() *clientv3.Client
	Close() error
}
