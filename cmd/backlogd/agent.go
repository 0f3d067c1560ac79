package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/chtzvt/backlogtrace/cmd/backlogd/config"
	"github.com/chtzvt/backlogtrace/internal/agent"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run as agent node (hosts traced contexts)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return runAgent(cfg)
	},
}

func runAgent(cfg *config.DaemonConfig) error {
	ctx := cmdContext()

	if len(cfg.Contexts) == 0 {
		return fmt.Errorf("at least one entry under contexts is required in agent mode")
	}

	fmt.Printf("Starting agent node: %s\n", cfg.Node.ID)
	cl, err := newCluster(cfg)
	if err != nil {
		return fmt.Errorf("boot failure: %w", err)
	}
	defer cl.Close()

	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags)

	a := agent.NewAgent(cl, cfg.Node.ID, logger)
	a.Version = version
	if cfg.Agent.PublishPeriod > 0 {
		a.PublishPeriod = cfg.Agent.PublishPeriod
	}
	for _, c := range cfg.Contexts {
		if _, err := a.AddContext(c.Name, c.Tracer); err != nil {
			return fmt.Errorf("context %q: %w", c.Name, err)
		}
		logger.Printf("Hosting context %s (tracer enabled=%t)", c.Name, c.Tracer.Enabled)
	}

	if cfg.Agent.IngestAddr != "" {
		srv := &http.Server{
			Addr:              cfg.Agent.IngestAddr,
			Handler:           a.IngestHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
		go func() {
			logger.Printf("Accepting trace events on %s", cfg.Agent.IngestAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("ingest server failed: %v", err)
			}
		}()
	}

	err = a.Run(ctx)
	if errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
