package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Events(ctx context.Context) error
	NewEvent(ctx context.Context) error
	Photos(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit", or until ctx is cancelled.
//
//	Not logged in:
//	  help, register, login, exit | quit
//
//	Logged in:
//	  help
//	  me                          show the current account
//	  events | ls                 list your events
//	  newevent                    create an event (interactive)
//	  photos <eventId>            list photos of an event
//	  upload <eventId> <path>     upload a file or a directory of images
//	  logout
//	  exit | quit
//
// Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ep %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, events (ls), newevent, photos <eventId>, upload <eventId> <path>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "me":
			err = a.Me(ctx)

		case "events", "ls":
			err = a.Events(ctx)

		case "newevent":
			err = a.NewEvent(ctx)

		case "photos":
			err = a.Photos(ctx, args)

		case "upload":
			err = a.Upload(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}
