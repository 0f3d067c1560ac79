package command

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/olekukonko/tablewriter"
)

const dumpBodyWidth = 60

// BacklogTracerDump prints the traced messages buffered for a context.
type BacklogTracerDump struct {
	ctrl controller.Controller
	opts *Options
}

func NewBacklogTracerDump(ctrl controller.Controller, opts *Options) *BacklogTracerDump {
	if opts == nil {
		opts = &Options{}
	}
	return &BacklogTracerDump{ctrl: ctrl, opts: opts}
}

// Execute dumps every buffered event, or only those at nodeID when set.
func (c *BacklogTracerDump) Execute(ctx context.Context, name, nodeID string, out, errOut io.Writer) int {
	return guard(name, errOut, func() int {
		inst, err := c.ctrl.Lookup(ctx, name)
		if err != nil {
			return fail(errOut, err)
		}
		events, err := inst.TracerBacklog(ctx, nodeID)
		if err != nil {
			return fail(errOut, err)
		}

		var buf bytes.Buffer
		if c.opts.JSON {
			if events == nil {
				events = []tracer.Event{}
			}
			if err := writeJSON(&buf, events); err != nil {
				return fail(errOut, err)
			}
		} else {
			printEvents(&buf, events)
		}
		return emit(out, errOut, &buf)
	})
}

func printEvents(w io.Writer, events []tracer.Event) {
	if len(events) == 0 {
		io.WriteString(w, "No traced messages\n")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"UID", "Timestamp", "Route ID", "Node ID", "Exchange ID", "Body", "Truncated"})
	table.SetAutoWrapText(false)
	for _, ev := range events {
		body := ev.Body
		if ev.BodyKind != tracer.BodyText && body == "" {
			body = "[" + string(ev.BodyKind) + "]"
		}
		table.Append([]string{
			ev.UID,
			timeOrDash(ev.Timestamp),
			valOrDash(ev.RouteID),
			valOrDash(ev.NodeID),
			valOrDash(ev.ExchangeID),
			clip(body, dumpBodyWidth),
			strconv.FormatBool(ev.Truncated),
		})
	}
	table.Render()
}
