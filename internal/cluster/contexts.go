package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ContextLeaseTTL is how long a registration survives without a heartbeat.
const ContextLeaseTTL = 15

type ContextInfo struct {
	Name       string    `json:"name"`
	ID         string    `json:"id"`
	Host       string    `json:"host"`
	Version    string    `json:"version,omitempty"`
	Registered time.Time `json:"registered"`
	LastSeen   time.Time `json:"last_seen"`
}

func (c *etcdCluster) RegisterContext(ctx context.Context, info ContextInfo) (string, error) {
	if err := ValidateName(info.Name); err != nil {
		return "", err
	}
	if info.ID == "" {
		info.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	info.Registered = now
	info.LastSeen = now

	// Grant a lease for TTL (context heartbeat)
	lease, err := c.client.Grant(ctx, ContextLeaseTTL)
	if err != nil {
		return "", err
	}
	_, err = c.client.Put(ctx, c.contextKey(info.Name), mustJSON(info), clientv3.WithLease(lease.ID))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *etcdCluster) ListContexts(ctx context.Context) ([]ContextInfo, error) {
	prefix := path.Join(c.cfg.Prefix, "contexts") + "/"
	resp, err := c.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	contexts := make([]ContextInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info ContextInfo
		if err := json.Unmarshal(kv.Value, &info); err == nil {
			contexts = append(contexts, info)
		}
	}
	sort.Slice(contexts, func(i, j int) bool { return contexts[i].Name < contexts[j].Name })
	return contexts, nil
}

func (c *etcdCluster) GetContext(ctx context.Context, name string) (*ContextInfo, error) {
	info, _, err := c.getContext(ctx, name)
	return info, err
}

func (c *etcdCluster) getContext(ctx context.Context, name string) (*ContextInfo, clientv3.LeaseID, error) {
	if err := ValidateName(name); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrContextNotFound, name)
	}
	resp, err := c.client.Get(ctx, c.contextKey(name))
	if err != nil {
		return nil, 0, err
	}
	if len(resp.Kvs) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrContextNotFound, name)
	}
	var info ContextInfo
	if err := json.Unmarshal(resp.Kvs[0].Value, &info); err != nil {
		return nil, 0, fmt.Errorf("decode context %s: %w", name, err)
	}
	return &info, clientv3.LeaseID(resp.Kvs[0].Lease), nil
}

func (c *etcdCluster) HeartbeatContext(ctx context.Context, name string) error {
	info, leaseID, err := c.getContext(ctx, name)
	if err != nil {
		return err
	}
	if _, err := c.client.KeepAliveOnce(ctx, leaseID); err != nil {
		return err
	}
	info.LastSeen = time.Now().UTC()
	_, err = c.client.Put(ctx, c.contextKey(name), mustJSON(info), clientv3.WithLease(leaseID))
	return err
}

// DeregisterContext revokes the registration lease, which also drops every
// tracer key published under it.
func (c *etcdCluster) DeregisterContext(ctx context.Context, name string) error {
	_, leaseID, err := c.getContext(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.client.Revoke(ctx, leaseID)
	return err
}
