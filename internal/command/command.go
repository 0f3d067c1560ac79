// Package command implements the backlog tracer admin commands. Every command
// resolves a context through a controller.Controller, performs one query or
// change, and reports the outcome on the sinks it was given: formatted output
// on out, a single diagnostic on errOut, and a result code. Nothing is
// returned as an error or allowed to panic out of Execute.
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chtzvt/backlogtrace/internal/controller"
	"github.com/chtzvt/backlogtrace/internal/shell"
)

// Options are shared by every command registered from one CLI invocation.
type Options struct {
	JSON bool

	// backlog-tracer-start only
	BacklogSize  int
	RemoveOnDump *bool
}

// exitCode maps a collaborator failure onto a result code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, controller.ErrInstanceNotFound):
		return shell.ExitNotFound
	case errors.Is(err, controller.ErrBackend):
		return shell.ExitBackend
	default:
		return shell.ExitFailure
	}
}

// fail writes one diagnostic line for err and returns its result code.
func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return exitCode(err)
}

// guard converts a panic in fn into a backend failure on errOut.
func guard(name string, errOut io.Writer, fn func() int) (code int) {
	defer func() {
		if r := recover(); r != nil {
			code = fail(errOut, &controller.BackendError{Instance: name, Op: "query", Err: fmt.Errorf("panic: %v", r)})
		}
	}()
	return fn()
}

// emit writes buf to out in a single write.
func emit(out, errOut io.Writer, buf *bytes.Buffer) int {
	if _, err := out.Write(buf.Bytes()); err != nil {
		return fail(errOut, fmt.Errorf("write output: %w", err))
	}
	return shell.ExitOK
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte('\n')
	return nil
}
