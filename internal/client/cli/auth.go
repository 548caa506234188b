package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Register prompts for an email, an optional display name and a password and
// creates the account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if len(password) < common.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", common.MinPasswordLength)
	}

	if _, err := a.api.Register(ctx, email, password, name); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registered. You can log in now.")
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.setUser(user.Email)
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

// Logout ends the session. The local session is dropped even if the server
// cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.setUser("")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	name := ""
	if user.Name != nil {
		name = " (" + *user.Name + ")"
	}
	fmt.Fprintf(a.out, "%s%s, member since %s\n", user.Email, name, user.CreatedAt.Format("2006-01-02"))
	return nil
}
