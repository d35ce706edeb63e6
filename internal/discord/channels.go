package discord

import "github.com/bwmarrin/discordgo"

// StateChannels resolves channels from the gateway state cache only. A
// channel that is not cached, or belongs to another guild, does not resolve.
type StateChannels struct {
	State *discordgo.State
}

func (c *StateChannels) GuildChannel(guildID, channelID string) (*discordgo.Channel, bool) {
	if c == nil || c.State == nil || channelID == "" {
		return nil, false
	}
	ch, err := c.State.Channel(channelID)
	if err != nil || ch == nil || ch.GuildID != guildID {
		return nil, false
	}
	return ch, true
}
