package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/cli"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	app struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	cli.Version = Version
	cli.CommitSHA = CommitSHA

	ctx := kong.Parse(&app,
		kong.Vars{
			"version": cli.BuildVersion(),
		},
		kong.Name("beancount-bot"),
		kong.Description("Record Beancount transactions from chat messages."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	)

	err := ctx.Run()
	if code := cli.ExitCode(err); code != 0 {
		// A CommandError has already been reported by the command.
		var cmdErr *cli.CommandError
		if !errors.As(err, &cmdErr) {
			ctx.Errorf("%s", err)
		}
		os.Exit(code)
	}
}
