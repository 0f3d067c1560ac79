package command

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/olekukonko/tablewriter"
)

var errListUnsupported = errors.New("controller cannot list contexts")

// ContextList prints every context the controller knows about.
type ContextList struct {
	ctrl controller.Controller
	opts *Options
}

func NewContextList(ctrl controller.Controller, opts *Options) *ContextList {
	if opts == nil {
		opts = &Options{}
	}
	return &ContextList{ctrl: ctrl, opts: opts}
}

func (c *ContextList) Execute(ctx context.Context, out, errOut io.Writer) int {
	return guard("", errOut, func() int {
		lister, ok := c.ctrl.(controller.Lister)
		if !ok {
			return fail(errOut, errListUnsupported)
		}
		contexts, err := lister.ListContexts(ctx)
		if err != nil {
			return fail(errOut, err)
		}

		var buf bytes.Buffer
		if c.opts.JSON {
			if contexts == nil {
				contexts = []cluster.ContextInfo{}
			}
			if err := writeJSON(&buf, contexts); err != nil {
				return fail(errOut, err)
			}
		} else {
			printContexts(&buf, contexts)
		}
		return emit(out, errOut, &buf)
	})
}

func printContexts(w io.Writer, contexts []cluster.ContextInfo) {
	if len(contexts) == 0 {
		io.WriteString(w, "No contexts found\n")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "ID", "Host", "Version", "Registered", "Last Seen"})
	for _, ci := range contexts {
		table.Append([]string{
			ci.Name,
			valOrDash(ci.ID),
			valOrDash(ci.Host),
			valOrDash(ci.Version),
			timeOrDash(ci.Registered),
			timeOrDash(ci.LastSeen),
		})
	}
	table.Render()
}
