package main

import (
	// Go Internal Packages
	"context"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

type runner func(ctx context.Context, a *app) error

// commands maps a kingpin full command name to what runs it.
type commands map[string]runner

func registerCommands(cli *kingpin.Application) commands {
	cmds := commands{}
	registerAuth(cli, cmds)
	registerWatch(cli, cmds)
	registerAccounts(cli, cmds)
	registerTransactions(cli, cmds)
	registerNotifications(cli, cmds)
	registerPay(cli, cmds)
	registerQR(cli, cmds)
	registerDeadLetters(cli, cmds)
	return cmds
}
