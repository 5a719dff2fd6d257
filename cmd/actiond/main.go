package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "actiond",
		Usage: "Solana actions service CLI",
		Description: `A command-line tool for exercising and debugging the actiond service.

Use this CLI to fetch action metadata, request unsigned transactions, and
inspect the transactions the server returns.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Base URL of the actiond server",
				Value:   "http://localhost:8080",
				EnvVars: []string{"SERVER_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "action",
				Usage: "Action endpoint commands",
				Subcommands: []*cli.Command{
					getActionCommand(),
					postActionCommand(),
				},
			},
			decodeCommand(),
			healthCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
