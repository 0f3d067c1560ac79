package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chtzvt/backlogtrace/cmd/backlogd/config"
	"github.com/chtzvt/backlogtrace/internal/cluster"
)

func newCluster(cfg *config.DaemonConfig) (cluster.Cluster, error) {
	cl, err := cluster.NewEtcdCluster(cluster.EtcdConfig{
		Endpoints:   cfg.Etcd.Endpoints,
		Username:    cfg.Etcd.Username,
		Password:    cfg.Etcd.Password,
		Prefix:      cfg.Etcd.Prefix,
		DialTimeout: 5 * time.Second,

		BacklogCompression: cfg.Etcd.BacklogCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return cl, nil
}

func cmdContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
	return ctx
}
