package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

// BacklogTracerControl enables or disables a context's backlog tracer.
type BacklogTracerControl struct {
	ctrl   controller.Controller
	opts   *Options
	enable bool
}

func NewBacklogTracerStart(ctrl controller.Controller, opts *Options) *BacklogTracerControl {
	if opts == nil {
		opts = &Options{}
	}
	return &BacklogTracerControl{ctrl: ctrl, opts: opts, enable: true}
}

func NewBacklogTracerStop(ctrl controller.Controller, opts *Options) *BacklogTracerControl {
	if opts == nil {
		opts = &Options{}
	}
	return &BacklogTracerControl{ctrl: ctrl, opts: opts}
}

// Control builds the change sent to the tracer. Empty pattern and filter
// leave the current values in place.
func (c *BacklogTracerControl) Control(pattern, filter string) tracer.Control {
	ctl := tracer.Control{Enabled: c.enable}
	if !c.enable {
		return ctl
	}
	if p := strings.TrimSpace(pattern); p != "" {
		ctl.TracePattern = &p
	}
	if f := strings.TrimSpace(filter); f != "" {
		ctl.TraceFilter = &f
	}
	if c.opts.BacklogSize > 0 {
		size := c.opts.BacklogSize
		ctl.BacklogSize = &size
	}
	if c.opts.RemoveOnDump != nil {
		v := *c.opts.RemoveOnDump
		ctl.RemoveOnDump = &v
	}
	return ctl
}

func (c *BacklogTracerControl) Execute(ctx context.Context, name, pattern, filter string, out, errOut io.Writer) int {
	return guard(name, errOut, func() int {
		inst, err := c.ctrl.Lookup(ctx, name)
		if err != nil {
			return fail(errOut, err)
		}
		ctl := c.Control(pattern, filter)
		if err := inst.ConfigureTracer(ctx, ctl); err != nil {
			return fail(errOut, err)
		}

		var buf bytes.Buffer
		if c.opts.JSON {
			if err := writeJSON(&buf, map[string]any{"context": name, "control": ctl}); err != nil {
				return fail(errOut, err)
			}
		} else if c.enable {
			fmt.Fprintf(&buf, "Backlog tracer enabled on context %s\n", name)
		} else {
			fmt.Fprintf(&buf, "Backlog tracer disabled on context %s\n", name)
		}
		return emit(out, errOut, &buf)
	})
}
