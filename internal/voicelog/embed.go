package voicelog

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0x0099ff

// Embed renders a transition. It returns nil for NoOp.
func Embed(t Transition) *discordgo.MessageEmbed {
	var (
		m           Member
		at          time.Time
		description string
	)

	switch v := t.(type) {
	case Join:
		m, at = v.Member, v.At
		description = fmt.Sprintf("**<@%s> joined voice channel:** `%s`", m.UserID, v.Channel.Name)
	case Leave:
		m, at = v.Member, v.At
		description = fmt.Sprintf("**<@%s> left voice channel:** `%s`", m.UserID, v.Channel.Name)
	case Move:
		m, at = v.Member, v.At
		description = fmt.Sprintf("**<@%s> moved from voice channel:** `%s` **to** `%s`", m.UserID, v.From.Name, v.To.Name)
	default:
		return nil
	}

	return &discordgo.MessageEmbed{
		Color: EmbedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    m.Tag,
			IconURL: m.AvatarURL,
		},
		Description: description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: m.UserID, Inline: true},
			{Name: "Timestamp", Value: fmt.Sprintf("<t:%d:R>", at.Unix()), Inline: true},
		},
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}
