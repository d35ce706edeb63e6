package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/keshon/voicelog/internal/storage"
)

var guildFlag = &cli.StringFlag{
	Name:     "guild",
	Usage:    "Guild ID",
	Required: true,
	Action:   checkSnowflake("guild"),
}

// checkSnowflake rejects flag values that are not Discord ids. Required only
// checks presence, so --guild "" still reaches it.
func checkSnowflake(name string) func(*cli.Context, string) error {
	return func(_ *cli.Context, v string) error {
		isDigit := func(r rune) bool { return r >= '0' && r <= '9' }
		if v == "" || strings.TrimFunc(v, isDigit) != "" {
			return errors.Errorf("--%s must be a numeric Discord id, got %q", name, v)
		}
		return nil
	}
}

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Inspect or edit the voice log settings store offline",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "storage",
			Usage:   "Path to the settings file",
			EnvVars: []string{"STORAGE_PATH"},
			Value:   "voiceLogDB.json",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:   "get",
			Usage:  "Print the voice log channel of a guild",
			Flags:  []cli.Flag{guildFlag},
			Action: withStorage(configGet),
		},
		{
			Name:  "set",
			Usage: "Set the voice log channel of a guild",
			Flags: []cli.Flag{
				guildFlag,
				&cli.StringFlag{Name: "channel", Usage: "Text channel ID", Required: true, Action: checkSnowflake("channel")},
			},
			Action: withStorage(configSet),
		},
		{
			Name:   "remove",
			Usage:  "Remove the voice log channel of a guild",
			Flags:  []cli.Flag{guildFlag},
			Action: withStorage(configRemove),
		},
		{
			Name:   "dump",
			Usage:  "Print the whole settings document",
			Action: withStorage(configDump),
		},
	},
}

func withStorage(fn func(*cli.Context, *storage.Storage) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := storage.New(c.String("storage"), storage.Options{HumanReadable: true, Logger: zerolog.Nop()})
		if err != nil {
			return err
		}
		return errors.Combine(fn(c, store), store.Close())
	}
}

func configGet(c *cli.Context, store *storage.Storage) error {
	channelID, err := store.VoiceLogChannel(c.String("guild"))
	if errors.Is(err, storage.ErrNotConfigured) {
		fmt.Fprintln(c.App.Writer, "not configured")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, channelID)
	return nil
}

func configSet(c *cli.Context, store *storage.Storage) error {
	if err := store.SetVoiceLogChannel(c.String("guild"), c.String("channel")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "saved")
	return nil
}

func configRemove(c *cli.Context, store *storage.Storage) error {
	err := store.RemoveVoiceLogChannel(c.String("guild"))
	if errors.Is(err, storage.ErrNotConfigured) {
		fmt.Fprintln(c.App.Writer, "not configured")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "removed")
	return nil
}

func configDump(c *cli.Context, store *storage.Storage) error {
	data, err := store.Dump()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
