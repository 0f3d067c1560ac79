package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chtzvt/backlogtrace/internal/command"
	"github.com/chtzvt/backlogtrace/internal/shell"
	"github.com/spf13/cobra"
)

var (
	apiURL        string
	apiToken      string
	etcdEndpoints []string
	etcdPrefix    string
	outputJSON    bool
	timeout       time.Duration

	backlogSize  int
	removeOnDump bool

	exitCode = shell.ExitOK
)

func main() {
	root := &cobra.Command{
		Use:           "backlogctl",
		Short:         "backlog tracer admin CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "completion" || cmd.Name() == "help" {
				return nil
			}
			if len(etcdEndpoints) > 0 {
				return nil
			}
			if apiURL == "" || apiToken == "" {
				return fmt.Errorf("--api-url and --api-token (or --etcd-endpoints) are required")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", os.Getenv("BACKLOG_API_URL"), "API URL (or $BACKLOG_API_URL)")
	root.PersistentFlags().StringVar(&apiToken, "api-token", os.Getenv("BACKLOG_API_TOKEN"), "API token (or $BACKLOG_API_TOKEN)")
	root.PersistentFlags().StringSliceVar(&etcdEndpoints, "etcd-endpoints", splitEnv("BACKLOG_ETCD_ENDPOINTS"), "Query etcd directly instead of the API (or $BACKLOG_ETCD_ENDPOINTS)")
	root.PersistentFlags().StringVar(&etcdPrefix, "etcd-prefix", "", "etcd key prefix (default /backlogtrace)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	for _, e := range command.Entries(nil, nil) {
		root.AddCommand(shellCmd(e))
	}

	root.AddCommand(clusterStatusCmd())

	root.AddCommand(&cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Run: func(cmd *cobra.Command, args []string) {
			root.GenBashCompletion(os.Stdout)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if exitCode == shell.ExitOK {
			exitCode = shell.ExitUsage
		}
	}
	os.Exit(exitCode)
}

// shellCmd exposes one shell table entry as a cobra subcommand. Arguments are
// validated by the shell, not by cobra.
func shellCmd(e shell.Entry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.Usage(),
		Short: e.Description,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &command.Options{JSON: outputJSON, BacklogSize: backlogSize}
			if cmd.Flags().Changed("remove-on-dump") {
				v := removeOnDump
				opts.RemoveOnDump = &v
			}

			ctrl, closeFn, err := newController()
			if err != nil {
				exitCode = shell.ExitFailure
				return err
			}
			defer closeFn()

			sh := shell.New()
			if err := command.Register(sh, ctrl, opts); err != nil {
				exitCode = shell.ExitFailure
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()
			exitCode = sh.Dispatch(ctx, e.Name, args, os.Stdout, os.Stderr)
			return nil
		},
	}
	if e.Name == "backlog-tracer-start" {
		cmd.Flags().IntVar(&backlogSize, "backlog-size", 0, "Maximum number of buffered messages")
		cmd.Flags().BoolVar(&removeOnDump, "remove-on-dump", true, "Remove messages from the backlog once dumped")
	}
	return cmd
}

func splitEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
