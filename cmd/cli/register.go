package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/urfave/cli/v2"

	"github.com/keshon/voicelog/internal/command"
)

var registerCommand = &cli.Command{
	Name:   "register",
	Usage:  "Publish slash commands, globally or to a single guild",
	Action: register,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "token",
			Usage:    "The bot's token",
			EnvVars:  []string{"DISCORD_BOT_TOKEN"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "app-id",
			Usage:    "The bot's application ID",
			EnvVars:  []string{"DISCORD_CLIENT_ID"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "guild",
			Usage: "Register to this guild only instead of globally",
		},
	},
}

func register(c *cli.Context) error {
	dg, err := discordgo.New("Bot " + c.String("token"))
	if err != nil {
		return errors.Wrap(err, "create session")
	}

	guildID := c.String("guild")
	created, err := dg.ApplicationCommandBulkOverwrite(c.String("app-id"), guildID, command.SlashDefinitions())
	if err != nil {
		return errors.Wrap(err, "overwrite application commands")
	}

	if guildID == "" {
		fmt.Fprintf(c.App.Writer, "Registered %d global command(s)\n", len(created))
	} else {
		fmt.Fprintf(c.App.Writer, "Registered %d command(s) in guild %s\n", len(created), guildID)
	}
	return nil
}
