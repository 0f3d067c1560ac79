package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chtzvt/backlogtrace/internal/api"
	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/controller"
)

func cliClient() *api.Client {
	c := api.NewClient(apiURL, apiToken)
	c.Client.Timeout = timeout
	return c
}

func newEtcdCluster() (cluster.Cluster, error) {
	cl, err := cluster.NewEtcdCluster(cluster.EtcdConfig{
		Endpoints:   etcdEndpoints,
		Prefix:      etcdPrefix,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return cl, nil
}

// newController picks direct etcd access when endpoints are given, the head
// node API otherwise.
func newController() (controller.Controller, func(), error) {
	if len(etcdEndpoints) > 0 {
		cl, err := newEtcdCluster()
		if err != nil {
			return nil, nil, err
		}
		return controller.NewClusterController(cl), func() { _ = cl.Close() }, nil
	}
	return controller.NewAPIController(cliClient()), func() {}, nil
}

// cmdContext is bounded by --timeout and cancelled on SIGINT/SIGTERM.
func cmdContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancel
}

func outResult(v any, printer func(any)) {
	if outputJSON {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
	} else {
		printer(v)
	}
}

func valOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
