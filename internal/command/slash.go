package command

import "github.com/bwmarrin/discordgo"

// SlashProvider describes how a command is registered with Discord.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// PlayCommand is published as a slash command. Playback itself is not
// implemented and interactions for it go unanswered.
type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a song from a URL or search query" }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "The song URL or search query (YouTube, Spotify, etc.)",
				Required:    true,
			},
		},
	}
}

// SlashDefinitions returns the application commands the bot publishes.
func SlashDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, p := range []SlashProvider{&PlayCommand{}} {
		defs = append(defs, p.SlashDefinition())
	}
	return defs
}
