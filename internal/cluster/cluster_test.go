package cluster_test

import (
	"context"
	"testing"
	"time"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/compression"
	"github.com/chtzvt/backlogtrace/internal/testcluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/stretchr/testify/require"
)

func TestContextLifecycle(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	ctx := context.Background()
	id, err := cl.RegisterContext(ctx, cluster.ContextInfo{Name: "orders", Host: "testhost"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	contexts, err := cl.ListContexts(ctx)
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	require.Equal(t, "orders", contexts[0].Name)
	require.Equal(t, id, contexts[0].ID)

	info, err := cl.GetContext(ctx, "orders")
	require.NoError(t, err)
	first := info.LastSeen

	// Heartbeat works and refreshes last seen
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, cl.HeartbeatContext(ctx, "orders"))
	info, err = cl.GetContext(ctx, "orders")
	require.NoError(t, err)
	require.True(t, info.LastSeen.After(first))

	require.NoError(t, cl.DeregisterContext(ctx, "orders"))
	_, err = cl.GetContext(ctx, "orders")
	require.ErrorIs(t, err, cluster.ErrContextNotFound)
}

func TestRegisterContext_InvalidName(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	for _, name := range []string{"", "  ", "a/b"} {
		_, err := cl.RegisterContext(context.Background(), cluster.ContextInfo{Name: name})
		require.ErrorIs(t, err, cluster.ErrInvalidName, "name %q", name)
	}
}

func TestGetContext_Unknown(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	_, err := cl.GetContext(context.Background(), "missing-context")
	require.ErrorIs(t, err, cluster.ErrContextNotFound)
	require.Contains(t, err.Error(), "missing-context")

	require.ErrorIs(t, cl.HeartbeatContext(context.Background(), "missing-context"), cluster.ErrContextNotFound)
}

func TestTracerStatusPublication(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()
	ctx := context.Background()

	_, err := cl.RegisterContext(ctx, cluster.ContextInfo{Name: "orders"})
	require.NoError(t, err)

	// Registered, nothing published yet
	_, err = cl.GetTracerStatus(ctx, "orders")
	require.ErrorIs(t, err, cluster.ErrTracerUnavailable)

	cfg := tracer.DefaultConfig()
	cfg.Enabled = true
	tr := tracer.New("orders", cfg)
	tr.Record(tracer.Event{NodeID: "to1"})
	require.NoError(t, cl.PublishTracerStatus(ctx, "orders", tr.Status()))

	st, err := cl.GetTracerStatus(ctx, "orders")
	require.NoError(t, err)
	require.True(t, st.Enabled)
	require.EqualValues(t, 1, st.TraceCounter)
	require.Equal(t, 1, st.QueueSize)

	_, err = cl.GetTracerStatus(ctx, "missing-context")
	require.ErrorIs(t, err, cluster.ErrContextNotFound)
	require.ErrorIs(t, cl.PublishTracerStatus(ctx, "missing-context", tr.Status()), cluster.ErrContextNotFound)
}

func TestBacklogPublication(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()
	ctx := context.Background()

	cfg := tracer.DefaultConfig()
	cfg.Enabled = true
	tr := tracer.New("orders", cfg)
	tr.Record(tracer.Event{NodeID: "to1", Body: "hello"})
	tr.Record(tracer.Event{NodeID: "to2", Body: "world"})
	testcluster.RegisterTestContext(t, cl, tr)

	events, err := cl.GetBacklog(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "hello", events[0].Body)
	require.Equal(t, "to2", events[1].NodeID)
}

func TestTracerControlWatch(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := cl.RegisterContext(ctx, cluster.ContextInfo{Name: "orders"})
	require.NoError(t, err)

	ch := cl.WatchTracerControl(ctx, "orders")
	pattern := "to*"
	require.NoError(t, cl.SetTracerControl(ctx, "orders", tracer.Control{Enabled: true, TracePattern: &pattern}))

	select {
	case ctl := <-ch:
		require.True(t, ctl.Enabled)
		require.NotNil(t, ctl.TracePattern)
		require.Equal(t, "to*", *ctl.TracePattern)
	case <-ctx.Done():
		t.Fatal("no control received")
	}

	require.ErrorIs(t, cl.SetTracerControl(ctx, "missing-context", tracer.Control{}), cluster.ErrContextNotFound)
}

func TestGetClusterStatus(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()
	ctx := context.Background()

	testcluster.RegisterTestContext(t, cl, tracer.New("orders", tracer.DefaultConfig()))
	_, err := cl.RegisterContext(ctx, cluster.ContextInfo{Name: "billing"})
	require.NoError(t, err)

	status, err := cl.GetClusterStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status.Contexts, 2)

	// sorted by name
	require.Equal(t, "billing", status.Contexts[0].Context.Name)
	require.Nil(t, status.Contexts[0].Tracer)
	require.Equal(t, "orders", status.Contexts[1].Context.Name)
	require.NotNil(t, status.Contexts[1].Tracer)
}

func TestNewEtcdCluster_UnsupportedCompression(t *testing.T) {
	_, err := cluster.NewEtcdCluster(cluster.EtcdConfig{
		Endpoints:          []string{"localhost:2379"},
		BacklogCompression: "lzma",
	})
	require.ErrorIs(t, err, compression.ErrUnsupported)
}
