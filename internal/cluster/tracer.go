package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chtzvt/backlogtrace/internal/compression"
	"github.com/chtzvt/backlogtrace/internal/tracer"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Tracer keys share the registration lease so they expire with the context.

func (c *etcdCluster) PublishTracerStatus(ctx context.Context, name string, status tracer.Status) error {
	_, leaseID, err := c.getContext(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.client.Put(ctx, c.tracerKey(name, "status"), mustJSON(status), clientv3.WithLease(leaseID))
	return err
}

func (c *etcdCluster) GetTracerStatus(ctx context.Context, name string) (*tracer.Status, error) {
	if _, _, err := c.getContext(ctx, name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, c.tracerKey(name, "status"))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTracerUnavailable, name)
	}
	var st tracer.Status
	if err := json.Unmarshal(resp.Kvs[0].Value, &st); err != nil {
		return nil, fmt.Errorf("decode tracer status %s: %w", name, err)
	}
	return &st, nil
}

func (c *etcdCluster) PublishBacklog(ctx context.Context, name string, events []tracer.Event) error {
	_, leaseID, err := c.getContext(ctx, name)
	if err != nil {
		return err
	}
	data, err := tracer.EncodeBacklog(events)
	if err != nil {
		return err
	}
	data, err = compression.Encode(data, c.cfg.BacklogCompression)
	if err != nil {
		return err
	}
	_, err = c.client.Put(ctx, c.tracerKey(name, "backlog"), string(data), clientv3.WithLease(leaseID))
	return err
}

func (c *etcdCluster) GetBacklog(ctx context.Context, name string) ([]tracer.Event, error) {
	if _, _, err := c.getContext(ctx, name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, c.tracerKey(name, "backlog"))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTracerUnavailable, name)
	}
	data, err := compression.Decode(resp.Kvs[0].Value)
	if err != nil {
		return nil, fmt.Errorf("decode backlog %s: %w", name, err)
	}
	return tracer.DecodeBacklog(data)
}

func (c *etcdCluster) SetTracerControl(ctx context.Context, name string, ctl tracer.Control) error {
	_, leaseID, err := c.getContext(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.client.Put(ctx, c.tracerKey(name, "control"), mustJSON(ctl), clientv3.WithLease(leaseID))
	return err
}

// WatchTracerControl streams controls written after it returns. The channel is
// closed when ctx is done or the watch fails.
func (c *etcdCluster) WatchTracerControl(ctx context.Context, name string) <-chan tracer.Control {
	out := make(chan tracer.Control)
	wch := c.client.Watch(ctx, c.tracerKey(name, "control"), clientv3.WithCreatedNotify())

	// Block until the watcher is established.
	select {
	case resp, ok := <-wch:
		if !ok || resp.Err() != nil {
			close(out)
			return out
		}
	case <-ctx.Done():
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for resp := range wch {
			if resp.Err() != nil {
				return
			}
			for _, ev := range resp.Events {
				if ev.Type != clientv3.EventTypePut {
					continue
				}
				var ctl tracer.Control
				if err := json.Unmarshal(ev.Kv.Value, &ctl); err != nil {
					continue
				}
				select {
				case out <- ctl:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
