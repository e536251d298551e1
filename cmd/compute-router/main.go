package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

const (
	FlagRouterRepo = "router-repo"

	Version = "0.2.0"
)

func main() {
	app := &cli.App{
		Name:                 "compute-router",
		Usage:                "A compute router matches GPU job requests against a pool of providers with heterogeneous pricing models and produces an auditable routing decision.",
		EnableBashCompletion: true,
		Version:              Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    FlagRouterRepo,
				EnvVars: []string{"ROUTER_PATH"},
				Usage:   "router repo path",
				Value:   "~/.gpumesh/router",
			},
		},
		Commands: []*cli.Command{
			runCmd,
			providerCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
	}
}
