package testcluster

import (
	"context"
	"testing"
	"time"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/testutil"
	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/server/v3/embed"
)

// Start an embedded etcd cluster for test, return cluster + cleanup
func SetupEtcdCluster(t *testing.T) (cluster.Cluster, func()) {
	t.Helper()
	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.Logger = "zap"
	cfg.LogLevel = "error"
	e, err := embed.StartEtcd(cfg)
	require.NoError(t, err)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		t.Fatal("etcd server did not become ready in time")
	}

	cl, err := cluster.NewEtcdCluster(cluster.EtcdConfig{
		Endpoints:   []string{e.Clients[0].Addr().String()},
		DialTimeout: 2 * time.Second,
		Prefix:      "/backlogtrace_test_" + testutil.RandString(5),
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = cl.Close()
		e.Close()
	}
	return cl, cleanup
}

// RegisterTestContext registers name and publishes the status of tr under it.
func RegisterTestContext(t *testing.T, cl cluster.Cluster, tr *tracer.BacklogTracer) {
	t.Helper()
	ctx := context.Background()
	_, err := cl.RegisterContext(ctx, cluster.ContextInfo{Name: tr.Name(), Host: "testhost"})
	require.NoError(t, err)
	require.NoError(t, cl.PublishTracerStatus(ctx, tr.Name(), tr.Status()))
	require.NoError(t, cl.PublishBacklog(ctx, tr.Name(), tr.Snapshot()))
}
