package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	failWith error

	calls []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.failWith
}
func (f *fakeExec) Register(ctx context.Context) error { return f.record("register") }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Me(ctx context.Context) error       { return f.record("me") }
func (f *fakeExec) Events(ctx context.Context) error   { return f.record("events") }
func (f *fakeExec) NewEvent(ctx context.Context) error { return f.record("newevent") }
func (f *fakeExec) Photos(ctx context.Context, args []string) error {
	return f.record("photos " + strings.Join(args, " "))
}
func (f *fakeExec) Upload(ctx context.Context, args []string) error {
	return f.record("upload " + strings.Join(args, " "))
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := capturePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"me",
		"ls",
		"newevent",
		"photos evt-1",
		"upload evt-1 /tmp/pics",
		"foobar",
		"logout",
		"exit",
		"me",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "me", "events", "newevent", "photos evt-1", "upload evt-1 /tmp/pics", "logout",
	}, exec.calls)

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Available commands: register, login, exit")
	assert.Contains(t, joined, "upload <eventId> <path>")
	assert.Contains(t, joined, "Unknown command: foobar")
	assert.Contains(t, joined, "ep status> ")
	assert.Contains(t, joined, "Bye!")
}

func TestRunREPL_PrintsCommandErrors(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{loggedIn: true, failWith: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("me\n")))

	require.Equal(t, []string{"me"}, exec.calls)
	assert.Contains(t, strings.Join(*out, "\n"), "Error: boom")
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))
	assert.Empty(t, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runREPL(ctx, exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("me\n")))
	assert.Empty(t, exec.calls)
}
