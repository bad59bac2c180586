package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	errors "bankfeed/errors"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func main() {
	cli := kingpin.New("bank-console", "Live console for the banking backend.")
	configPath := cli.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	jsonOut := cli.Flag("json", "Print results as JSON").Bool()

	cmds := registerCommands(cli)
	selected := kingpin.MustParse(cli.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(*configPath, *jsonOut, os.Stdout)
	if err != nil {
		fatal(err)
	}
	defer a.close()

	run, ok := cmds[selected]
	if !ok {
		fatal(errors.E(errors.Invalid, "unknown command "+selected, nil))
	}
	if err := run(ctx, a); err != nil {
		a.close()
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
