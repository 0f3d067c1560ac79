package command

import (
	"context"
	"io"

	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/chtzvt/backlogtrace/internal/shell"
)

const Scope = "backlog"

func optArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// Entries returns the shell table entries for every backlog tracer command.
func Entries(ctrl controller.Controller, opts *Options) []shell.Entry {
	if opts == nil {
		opts = &Options{}
	}
	info := NewBacklogTracerInfo(ctrl, opts)
	dump := NewBacklogTracerDump(ctrl, opts)
	start := NewBacklogTracerStart(ctrl, opts)
	stop := NewBacklogTracerStop(ctrl, opts)
	list := NewContextList(ctrl, opts)

	contextArg := shell.Arg{Name: "context", Description: "The name of the context.", Required: true}

	return []shell.Entry{
		{
			Scope:       Scope,
			Name:        "backlog-tracer-info",
			Description: "Displays the current status of the Backlog tracer",
			Args:        []shell.Arg{contextArg},
			Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
				return info.Execute(ctx, args[0], out, errOut)
			},
		},
		{
			Scope:       Scope,
			Name:        "backlog-tracer-dump",
			Description: "Dumps the messages traced by the Backlog tracer",
			Args:        []shell.Arg{contextArg, {Name: "node", Description: "Only dump messages traced at this node id."}},
			Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
				return dump.Execute(ctx, args[0], optArg(args, 1), out, errOut)
			},
		},
		{
			Scope:       Scope,
			Name:        "backlog-tracer-start",
			Description: "Starts the Backlog tracer",
			Args: []shell.Arg{
				contextArg,
				{Name: "pattern", Description: "Comma separated node or route id patterns to trace."},
				{Name: "filter", Description: "Header predicate (name or name=value) messages must match."},
			},
			Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
				return start.Execute(ctx, args[0], optArg(args, 1), optArg(args, 2), out, errOut)
			},
		},
		{
			Scope:       Scope,
			Name:        "backlog-tracer-stop",
			Description: "Stops the Backlog tracer",
			Args:        []shell.Arg{contextArg},
			Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
				return stop.Execute(ctx, args[0], "", "", out, errOut)
			},
		},
		{
			Scope:       Scope,
			Name:        "context-list",
			Description: "Lists the registered contexts",
			Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
				return list.Execute(ctx, out, errOut)
			},
		},
	}
}

// Register adds every backlog tracer command to sh.
func Register(sh *shell.Shell, ctrl controller.Controller, opts *Options) error {
	for _, e := range Entries(ctrl, opts) {
		if err := sh.Register(e); err != nil {
			return err
		}
	}
	return nil
}
