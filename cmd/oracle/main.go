package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var urlFlag = &cli.StringFlag{
	Name:  "url",
	Usage: "the url of the oracle daemon",
	Value: "http://localhost:7171",
}

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s (%s, %s)", version, commit, date)
	app.Name = "oracle"
	app.Usage = "command line interface for the outcome resolution daemon"
	app.Flags = []cli.Flag{urlFlag}
	app.Commands = append(
		app.Commands,
		manualCmd,
		majorityCmd,
		challengeCmd,
		outcomeCmd,
		eventsCmd,
		ledgerCmd,
		simulateCmd,
	)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
