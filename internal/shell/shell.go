// Package shell owns the admin command table: each entry binds a scoped
// command name to a handler and the positional arguments it declares.
// Arguments are validated here, before any handler runs.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Result codes returned by Dispatch and by handlers.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitBackend  = 4
)

var (
	ErrEmptyName      = errors.New("command name is required")
	ErrDuplicateEntry = errors.New("command already registered")
	ErrNoHandler      = errors.New("command has no handler")
	ErrArgOrder       = errors.New("required argument follows an optional one")
)

type Handler func(ctx context.Context, args []string, out, errOut io.Writer) int

type Arg struct {
	Name        string
	Description string
	Required    bool
}

type Entry struct {
	Scope       string
	Name        string
	Description string
	Args        []Arg
	Run         Handler
}

// Usage renders the entry's command line, e.g. "backlog-tracer-info <context> [node]".
func (e Entry) Usage() string {
	var b strings.Builder
	b.WriteString(e.Name)
	for _, a := range e.Args {
		if a.Required {
			fmt.Fprintf(&b, " <%s>", a.Name)
		} else {
			fmt.Fprintf(&b, " [%s]", a.Name)
		}
	}
	return b.String()
}

func (e Entry) requiredArgs() int {
	n := 0
	for _, a := range e.Args {
		if a.Required {
			n++
		}
	}
	return n
}

type Shell struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Shell {
	return &Shell{entries: make(map[string]Entry)}
}

func (s *Shell) Register(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Run == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, e.Name)
	}
	optional := false
	for _, a := range e.Args {
		if !a.Required {
			optional = true
		} else if optional {
			return fmt.Errorf("%w: %s <%s>", ErrArgOrder, e.Name, a.Name)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Name)
	}
	s.entries[e.Name] = e
	return nil
}

// MustRegister is Register for static tables built at startup.
func (s *Shell) MustRegister(entries ...Entry) {
	for _, e := range entries {
		if err := s.Register(e); err != nil {
			panic(err)
		}
	}
}

func (s *Shell) Lookup(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	return e, ok
}

// Entries returns the table sorted by name.
func (s *Shell) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks args against the entry's declared arguments.
func (e Entry) Validate(args []string) error {
	if len(args) < e.requiredArgs() {
		return fmt.Errorf("missing required argument %q", e.Args[len(args)].Name)
	}
	if len(args) > len(e.Args) {
		return fmt.Errorf("too many arguments: expected at most %d, got %d", len(e.Args), len(args))
	}
	for i, a := range e.Args {
		if i < len(args) && a.Required && strings.TrimSpace(args[i]) == "" {
			return fmt.Errorf("argument %q must not be empty", a.Name)
		}
	}
	return nil
}

// Dispatch validates args and runs the named command. Usage errors are
// reported on errOut with ExitUsage and never reach the handler.
func (s *Shell) Dispatch(ctx context.Context, name string, args []string, out, errOut io.Writer) int {
	e, ok := s.Lookup(name)
	if !ok {
		fmt.Fprintf(errOut, "unknown command: %s\n", name)
		return ExitUsage
	}
	if err := e.Validate(args); err != nil {
		fmt.Fprintf(errOut, "%s\nusage: %s\n", err, e.Usage())
		return ExitUsage
	}
	return e.Run(ctx, args, out, errOut)
}
