package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	user, mode := a.userName, a.mode
	a.mu.Unlock()

	s := ""
	if user != "" && a.isLoggedIn() {
		s = user + " "
	}
	if mode != "" {
		s = s + string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive loop on stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to eventphotos CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
