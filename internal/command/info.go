package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/olekukonko/tablewriter"
)

// BacklogTracerInfo displays the current status of a context's backlog tracer.
type BacklogTracerInfo struct {
	ctrl controller.Controller
	opts *Options
}

func NewBacklogTracerInfo(ctrl controller.Controller, opts *Options) *BacklogTracerInfo {
	if opts == nil {
		opts = &Options{}
	}
	return &BacklogTracerInfo{ctrl: ctrl, opts: opts}
}

func (c *BacklogTracerInfo) Execute(ctx context.Context, name string, out, errOut io.Writer) int {
	return guard(name, errOut, func() int {
		inst, err := c.ctrl.Lookup(ctx, name)
		if err != nil {
			return fail(errOut, err)
		}
		st, err := inst.TracerStatus(ctx)
		if err != nil {
			return fail(errOut, err)
		}
		if st == nil {
			return fail(errOut, &controller.BackendError{Instance: name, Op: "tracer status", Err: fmt.Errorf("empty status")})
		}

		var buf bytes.Buffer
		switch {
		case c.opts.JSON:
			if err := writeJSON(&buf, st); err != nil {
				return fail(errOut, err)
			}
		case !st.Structured():
			buf.WriteString(st.Summary)
			if !strings.HasSuffix(st.Summary, "\n") {
				buf.WriteByte('\n')
			}
		default:
			printTracerStatus(&buf, name, st)
		}
		return emit(out, errOut, &buf)
	})
}

func printTracerStatus(w io.Writer, name string, st *tracer.Status) {
	contextName := st.Context
	if contextName == "" {
		contextName = name
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.Append([]string{"Context", contextName})
	table.Append([]string{"Enabled", strconv.FormatBool(st.Enabled)})
	table.Append([]string{"Trace Pattern", valOrDash(st.TracePattern)})
	table.Append([]string{"Trace Filter", valOrDash(st.TraceFilter)})
	table.Append([]string{"Backlog Size", strconv.Itoa(st.BacklogSize)})
	table.Append([]string{"Remove On Dump", strconv.FormatBool(st.RemoveOnDump)})
	table.Append([]string{"Body Max Chars", strconv.Itoa(st.BodyMaxChars)})
	table.Append([]string{"Body Include Streams", strconv.FormatBool(st.BodyIncludeStreams)})
	table.Append([]string{"Body Include Files", strconv.FormatBool(st.BodyIncludeFiles)})
	table.Append([]string{"Trace Counter", strconv.FormatInt(st.TraceCounter, 10)})
	table.Append([]string{"Queue Size", strconv.Itoa(st.QueueSize)})
	table.Append([]string{"Last Updated", timeOrDash(st.LastUpdated)})
	if st.Summary != "" {
		table.Append([]string{"Summary", st.Summary})
	}
	table.Render()
}
