// Command meerhash computes Meer proof-of-work digests and midstates, checks
// shares against targets and runs a CPU nonce search.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("meerhash")

var logLevelFlag = &cli.StringFlag{
	Name:    "loglevel",
	Usage:   "Log level (debug, info, warn, error)",
	Value:   "info",
	EnvVars: []string{"MEERHASH_LOGLEVEL"},
}

func newApp() *cli.App {
	app := &cli.App{
		Name:        filepath.Base(os.Args[0]),
		Usage:       "Meer proof-of-work hash tool",
		Writer:      os.Stdout,
		HideVersion: true,
		Flags:       []cli.Flag{logLevelFlag},
		Before: func(ctx *cli.Context) error {
			return setupLogging(ctx.String(logLevelFlag.Name))
		},
	}
	app.Commands = []*cli.Command{
		hashCommand(),
		midstateCommand(),
		verifyCommand(),
		searchCommand(),
	}
	return app
}

func setupLogging(level string) error {
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logging.SetAllLoggers(lvl)
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
