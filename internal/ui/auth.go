package ui

import (
	"context"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

func (a *App) Login(ctx context.Context, username, password string) error {
	var err error
	if username == "" {
		if username, err = a.readLine("Username: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = a.readLine("Password: "); err != nil {
			return err
		}
	}

	resp, err := a.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.session.SetCredential(resp.Token); err != nil {
		return err
	}
	a.printf("Logged in as %s.\n", resp.User.Username)
	return nil
}

func (a *App) Signup(ctx context.Context, req types.SignupRequest) error {
	var err error
	if req.Username == "" {
		if req.Username, err = a.readLine("Username: "); err != nil {
			return err
		}
	}
	if req.Password == "" {
		if req.Password, err = a.readLine("Password: "); err != nil {
			return err
		}
	}

	resp, err := a.api.Signup(ctx, req)
	if err != nil {
		return err
	}
	if err := a.session.SetCredential(resp.Token); err != nil {
		return err
	}
	a.printf("Account %s created, starting balance granted. You are logged in.\n", resp.User.Username)
	return nil
}

func (a *App) Logout() error {
	if err := a.session.SetCredential(""); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return humanize(err)
	}
	a.printf("%s (role %s)\nbalance: %d\n", me.Username, me.Role, me.Balance)
	return nil
}
