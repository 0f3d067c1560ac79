package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chtzvt/backlogtrace/cmd/backlogd/config"
	"github.com/chtzvt/backlogtrace/internal/api"
	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/spf13/cobra"
)

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Run as head node (HTTP API over the context registry)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return runHead(cfg)
	},
}

func runHead(cfg *config.DaemonConfig) error {
	ctx := cmdContext()

	if len(cfg.Api.AuthTokens) == 0 {
		return fmt.Errorf("api.auth_tokens is required when starting in head node mode")
	}

	cl, err := newCluster(cfg)
	if err != nil {
		return fmt.Errorf("boot failure: %w", err)
	}
	defer cl.Close()

	logger := log.New(os.Stdout, "[api] ", log.LstdFlags)
	apiServer := api.NewServer(cl, cfg.Api, logger)

	go headMonitorLoop(ctx, cl, 30*time.Second, logger)

	logger.Printf("Starting API server on %s", cfg.Api.ListenAddr)
	return apiServer.Start(ctx)
}

// headMonitorLoop logs contexts whose tracer state has not been published.
func headMonitorLoop(ctx context.Context, cl cluster.Cluster, pollInterval time.Duration, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
			status, err := cl.GetClusterStatus(ctx)
			if err != nil {
				logger.Printf("Error reading cluster status: %v", err)
				continue
			}
			for _, cs := range status.Contexts {
				if cs.Tracer == nil {
					logger.Printf("Context %s (%s) has not published tracer status", cs.Context.Name, cs.Context.Host)
				}
			}
		}
	}
}
