package main

import (
	"os"

	"bookstore/config"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.WithError(err).Fatal("load .env")
	}

	app := &cli.App{
		Name:  "bookstore",
		Usage: "bookstore catalog, cart and checkout API",
		Commands: []*cli.Command{
			serveCommand(),
			createAdminCommand(),
			seedCommand(),
			hashPasswordCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("bookstore exited")
	}
}
