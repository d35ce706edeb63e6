package voicelog

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// FromVoiceStateUpdate classifies a gateway voice state update. Channel names
// are resolved through channels; unknown channels fall back to their id.
func FromVoiceStateUpdate(vs *discordgo.VoiceStateUpdate, channels GuildChannels, at time.Time) Transition {
	if vs == nil || vs.VoiceState == nil {
		return NoOp{}
	}

	var before *Channel
	if vs.BeforeUpdate != nil && vs.BeforeUpdate.ChannelID != "" {
		before = resolveChannel(channels, vs.GuildID, vs.BeforeUpdate.ChannelID)
	}
	var after *Channel
	if vs.ChannelID != "" {
		after = resolveChannel(channels, vs.GuildID, vs.ChannelID)
	}

	return Classify(memberOf(vs.VoiceState), before, after, at)
}

func resolveChannel(channels GuildChannels, guildID, channelID string) *Channel {
	c := &Channel{ID: channelID, Name: channelID}
	if ch, ok := channels.GuildChannel(guildID, channelID); ok && ch.Name != "" {
		c.Name = ch.Name
	}
	return c
}

func memberOf(vs *discordgo.VoiceState) Member {
	m := Member{UserID: vs.UserID, Tag: vs.UserID}
	if vs.Member == nil || vs.Member.User == nil {
		return m
	}
	u := vs.Member.User
	m.Tag = UserTag(u)
	m.AvatarURL = u.AvatarURL("")
	return m
}

// UserTag renders "name#1234", or just the username for accounts on the new
// username system.
func UserTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
