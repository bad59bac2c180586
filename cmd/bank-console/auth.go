package main

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	errors "bankfeed/errors"
	tokens "bankfeed/repositories/tokens"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func registerAuth(cli *kingpin.Application, cmds commands) {
	login := cli.Command("login", "Store the bearer token used for REST and push.")
	token := login.Flag("token", "Bearer token").Required().String()
	cmds[login.FullCommand()] = func(ctx context.Context, a *app) error {
		store, err := tokens.NewFileStore(a.conf.API.TokenFile)
		if err != nil {
			return err
		}
		if err := store.Set(*token); err != nil {
			return err
		}
		// Get drops a token that is already expired.
		if _, err := store.Get(); err != nil {
			return errors.E(errors.Unauthenticated, "token is already expired", nil)
		}
		_, err = fmt.Fprintf(a.out, "Logged in, token saved to %s\n", store.Path())
		return err
	}

	logout := cli.Command("logout", "Remove the stored token.")
	cmds[logout.FullCommand()] = func(ctx context.Context, a *app) error {
		store, err := tokens.NewFileStore(a.conf.API.TokenFile)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, "Logged out")
		return err
	}
}
