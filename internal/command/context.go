package command

import (
	"regexp"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session that prefix commands use.
type Session interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// GuildChannels resolves a channel id within a guild.
type GuildChannels interface {
	GuildChannel(guildID, channelID string) (*discordgo.Channel, bool)
}

// VoiceLogStore is the per-guild voice log configuration.
type VoiceLogStore interface {
	SetVoiceLogChannel(guildID, channelID string) error
	VoiceLogChannel(guildID string) (string, error)
	RemoveVoiceLogChannel(guildID string) error
}

// MessageContext is what a prefix command receives in Invocation.Data.
type MessageContext struct {
	Session  Session
	Channels GuildChannels
	Storage  VoiceLogStore
	Event    *discordgo.MessageCreate
}

// Reply answers the invoking message.
func (c *MessageContext) Reply(content string) error {
	_, err := c.Session.ChannelMessageSendReply(c.Event.ChannelID, content, c.Event.Reference())
	return err
}

var channelMention = regexp.MustCompile(`<#(\d+)>`)

// MentionedChannel returns the first channel mentioned in the message that
// exists in the message's guild.
func (c *MessageContext) MentionedChannel() (*discordgo.Channel, bool) {
	for _, m := range channelMention.FindAllStringSubmatch(c.Event.Content, -1) {
		if ch, ok := c.Channels.GuildChannel(c.Event.GuildID, m[1]); ok {
			return ch, true
		}
	}
	return nil, false
}
