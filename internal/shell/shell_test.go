package shell

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func recordingEntry(name string, called *[]string) Entry {
	return Entry{
		Scope:       "backlog",
		Name:        name,
		Description: "test command",
		Args: []Arg{
			{Name: "context", Required: true},
			{Name: "node"},
		},
		Run: func(ctx context.Context, args []string, out, errOut io.Writer) int {
			*called = append(*called, args...)
			_, _ = out.Write([]byte("ok"))
			return ExitOK
		},
	}
}

func TestRegister(t *testing.T) {
	s := New()
	var called []string

	require.NoError(t, s.Register(recordingEntry("backlog-tracer-info", &called)))
	require.ErrorIs(t, s.Register(recordingEntry("backlog-tracer-info", &called)), ErrDuplicateEntry)
	require.ErrorIs(t, s.Register(recordingEntry(" ", &called)), ErrEmptyName)
	require.ErrorIs(t, s.Register(Entry{Name: "nohandler"}), ErrNoHandler)

	require.Panics(t, func() { s.MustRegister(recordingEntry("backlog-tracer-info", &called)) })
}

func TestRegister_RequiredAfterOptional(t *testing.T) {
	var called []string
	e := recordingEntry("backlog-tracer-dump", &called)
	e.Args = []Arg{{Name: "node"}, {Name: "context", Required: true}}

	s := New()
	err := s.Register(e)
	require.ErrorIs(t, err, ErrArgOrder)
	require.Contains(t, err.Error(), "context")
	_, ok := s.Lookup("backlog-tracer-dump")
	require.False(t, ok)
}

func TestEntries_Sorted(t *testing.T) {
	s := New()
	var called []string
	s.MustRegister(
		recordingEntry("b", &called),
		recordingEntry("c", &called),
		recordingEntry("a", &called),
	)
	var names []string
	for _, e := range s.Entries() {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestUsage(t *testing.T) {
	var called []string
	require.Equal(t, "backlog-tracer-dump <context> [node]", recordingEntry("backlog-tracer-dump", &called).Usage())
}

func TestDispatch(t *testing.T) {
	s := New()
	var called []string
	s.MustRegister(recordingEntry("backlog-tracer-info", &called))

	var out, errOut bytes.Buffer
	code := s.Dispatch(context.Background(), "backlog-tracer-info", []string{"my-context"}, &out, &errOut)
	require.Equal(t, ExitOK, code)
	require.Equal(t, "ok", out.String())
	require.Empty(t, errOut.String())
	require.Equal(t, []string{"my-context"}, called)
}

func TestDispatch_RejectsBeforeHandler(t *testing.T) {
	s := New()
	var called []string
	s.MustRegister(recordingEntry("backlog-tracer-info", &called))

	for _, tc := range []struct {
		name string
		args []string
		msg  string
	}{
		{"empty identifier", []string{""}, `argument "context" must not be empty`},
		{"blank identifier", []string{"   "}, `argument "context" must not be empty`},
		{"missing identifier", nil, `missing required argument "context"`},
		{"surplus arguments", []string{"a", "b", "c"}, "too many arguments"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := s.Dispatch(context.Background(), "backlog-tracer-info", tc.args, &out, &errOut)
			require.Equal(t, ExitUsage, code)
			require.Empty(t, out.String())
			require.Contains(t, errOut.String(), tc.msg)
			require.Contains(t, errOut.String(), "usage: backlog-tracer-info <context> [node]")
		})
	}
	require.Empty(t, called)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := New().Dispatch(context.Background(), "nope", nil, &out, &errOut)
	require.Equal(t, ExitUsage, code)
	require.Contains(t, errOut.String(), "unknown command: nope")
}
