package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

var loginCmd = &cli.Command{
	Name:  "login",
	Usage: "log in to the judge and store the session",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		a := appFrom(ctx)
		client := a.judgeClient()
		if !cmd.Bool("force") {
			if sess, ok, err := client.HasValidSession(ctx); err == nil && ok {
				a.out.Success("already logged in as %s", sess.Username)
				return nil
			}
		}
		creds, err := a.prompt.Credentials(ctx)
		if err != nil {
			return err
		}
		sess, err := client.Login(ctx, creds)
		if err != nil {
			return err
		}
		a.out.Success("logged in as %s", sess.Username)
		return nil
	},
}

var logoutCmd = &cli.Command{
	Name:  "logout",
	Usage: "end the judge session and remove the stored tokens",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		a := appFrom(ctx)
		if err := a.judgeClient().Logout(ctx); err != nil {
			return err
		}
		a.out.Info("logged out")
		return nil
	},
}
