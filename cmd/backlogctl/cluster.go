package main

import (
	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/shell"
	"github.com/spf13/cobra"
)

func clusterStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster-status",
		Short: "Show every context with its tracer status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			var (
				status *cluster.ClusterStatus
				err    error
			)
			if len(etcdEndpoints) > 0 {
				cl, cerr := newEtcdCluster()
				if cerr != nil {
					exitCode = shell.ExitFailure
					return cerr
				}
				defer cl.Close()
				status, err = cl.GetClusterStatus(ctx)
			} else {
				status, err = cliClient().GetClusterStatus(ctx)
			}
			if err != nil {
				exitCode = shell.ExitBackend
				return err
			}
			outResult(status, printClusterStatusTable)
			return nil
		},
	}
}
