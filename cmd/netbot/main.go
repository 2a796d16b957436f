package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	version = "0.1.0"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "netbot",
		Usage:   "Chat with an assistant grounded in your own documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./netbot.toml or ~/.netbot.toml)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Knowledge-base backend `URL`, overrides the configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log `LEVEL` (trace, debug, info, warn, error, disabled)",
			},
		},
		Action: runChat,
		Commands: []*cli.Command{
			ChatCommand(),
			AskCommand(),
			DocsCommand(),
			WatchCommand(),
			ConfigCommand(),
		},
	}
}
