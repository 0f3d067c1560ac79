package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/testcluster"
	"github.com/chtzvt/backlogtrace/internal/testutil"
	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/stretchr/testify/require"
)

func enabledConfig() tracer.Config {
	cfg := tracer.DefaultConfig()
	cfg.Enabled = true
	return cfg
}

func startAgent(t *testing.T, cl cluster.Cluster, names ...string) *Agent {
	t.Helper()
	a := NewAgent(cl, "agent-"+testutil.RandString(4), testutil.NewTestLogger(true))
	a.PublishPeriod = 50 * time.Millisecond
	a.HeartbeatPeriod = 100 * time.Millisecond
	for _, name := range names {
		_, err := a.AddContext(name, enabledConfig())
		require.NoError(t, err)
	}
	go func() { _ = a.Run(context.Background()) }()

	testutil.WaitFor(t, func() bool {
		contexts, err := cl.ListContexts(context.Background())
		return err == nil && len(contexts) == len(names)
	}, 5*time.Second, 20*time.Millisecond, "contexts registered")
	return a
}

func TestAddContext(t *testing.T) {
	a := NewAgent(nil, "a1", testutil.NewTestLogger(true))
	_, err := a.AddContext("orders", tracer.DefaultConfig())
	require.NoError(t, err)
	_, err = a.AddContext("orders", tracer.DefaultConfig())
	require.Error(t, err)
	_, err = a.AddContext("a/b", tracer.DefaultConfig())
	require.ErrorIs(t, err, cluster.ErrInvalidName)

	_, err = a.Record("missing-context", tracer.Event{})
	require.ErrorIs(t, err, ErrUnknownContext)
	require.Equal(t, []string{"orders"}, a.Contexts())
}

func TestAgent_PublishesStatus(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	a := startAgent(t, cl, "orders", "billing")
	defer a.Stop()

	ok, err := a.Record("orders", tracer.Event{NodeID: "to1", Body: "hello"})
	require.NoError(t, err)
	require.True(t, ok)

	testutil.WaitFor(t, func() bool {
		st, err := cl.GetTracerStatus(context.Background(), "orders")
		return err == nil && st.TraceCounter == 1
	}, 5*time.Second, 20*time.Millisecond, "status published")

	testutil.WaitFor(t, func() bool {
		events, err := cl.GetBacklog(context.Background(), "orders")
		return err == nil && len(events) == 1 && events[0].Body == "hello"
	}, 5*time.Second, 20*time.Millisecond, "backlog published")

	published, _, _ := a.Metrics.Snapshot()
	require.Positive(t, published)
}

func TestAgent_AppliesControl(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	a := startAgent(t, cl, "orders")
	defer a.Stop()

	pattern := "to*"
	require.NoError(t, cl.SetTracerControl(context.Background(), "orders", tracer.Control{Enabled: true, TracePattern: &pattern}))

	tr, ok := a.Tracer("orders")
	require.True(t, ok)
	testutil.WaitFor(t, func() bool {
		return tr.Status().TracePattern == "to*"
	}, 5*time.Second, 20*time.Millisecond, "control applied")

	require.NoError(t, cl.SetTracerControl(context.Background(), "orders", tracer.Control{Enabled: false}))
	testutil.WaitFor(t, func() bool {
		st, err := cl.GetTracerStatus(context.Background(), "orders")
		return err == nil && !st.Enabled
	}, 5*time.Second, 20*time.Millisecond, "disabled status published")

	_, _, controls := a.Metrics.Snapshot()
	require.EqualValues(t, 2, controls)
}

func TestAgent_StopDeregisters(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	a := startAgent(t, cl, "orders")
	a.Stop()

	_, err := cl.GetContext(context.Background(), "orders")
	require.ErrorIs(t, err, cluster.ErrContextNotFound)
}

func TestAgent_ReregistersLostContext(t *testing.T) {
	cl, cleanup := testcluster.SetupEtcdCluster(t)
	defer cleanup()

	a := startAgent(t, cl, "orders")
	defer a.Stop()

	require.NoError(t, cl.DeregisterContext(context.Background(), "orders"))
	testutil.WaitFor(t, func() bool {
		_, err := cl.GetTracerStatus(context.Background(), "orders")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "context re-registered")
}

func TestIngestHandler(t *testing.T) {
	a := NewAgent(nil, "a1", testutil.NewTestLogger(true))
	cfg := enabledConfig()
	cfg.TracePattern = "to*"
	_, err := a.AddContext("orders", cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(a.IngestHandler())
	defer srv.Close()

	post := func(path, body string) *http.Response {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	require.Equal(t, http.StatusAccepted, post("/trace/orders", `{"node_id":"to1","body":"hi"}`).StatusCode)
	require.Equal(t, http.StatusAccepted, post("/trace/orders", `{"node_id":"log1"}`).StatusCode)
	require.Equal(t, http.StatusNotFound, post("/trace/missing-context", `{}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post("/trace/orders", `{`).StatusCode)

	resp, err := http.Get(srv.URL + "/trace/orders")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	tr, _ := a.Tracer("orders")
	require.EqualValues(t, 1, tr.Status().TraceCounter)
}

func TestIngestHandler_RejectsOversizedEvent(t *testing.T) {
	a := NewAgent(nil, "a1", testutil.NewTestLogger(true))
	a.MaxEventBytes = 64
	_, err := a.AddContext("orders", enabledConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(a.IngestHandler())
	defer srv.Close()

	body := `{"node_id":"to1","body":"` + strings.Repeat("x", 1024) + `"}`
	resp, err := http.Post(srv.URL+"/trace/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	tr, _ := a.Tracer("orders")
	require.Zero(t, tr.Status().TraceCounter)
}

func TestNextBackoff(t *testing.T) {
	var got []time.Duration
	cur := time.Duration(0)
	for i := 0; i < 8; i++ {
		cur = nextBackoff(cur)
		got = append(got, cur)
	}
	require.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)
}
