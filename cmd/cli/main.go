package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/keshon/voicelog/internal/config"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "voicelog",
		Usage: "Maintenance tool for the voice log bot",
		Before: func(c *cli.Context) error {
			return config.LoadDotEnv()
		},
		Commands: []*cli.Command{
			registerCommand,
			configCommand,
		},
	}
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
