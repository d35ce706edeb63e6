package voicelog

import (
	"context"
	"net/http"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/voicelog/internal/storage"
)

// ErrStaleChannel means the configured channel no longer exists in the guild.
const ErrStaleChannel = errors.Sentinel("voice log channel no longer exists")

// ChannelStore is the part of the config store the notifier reads.
type ChannelStore interface {
	VoiceLogChannel(guildID string) (string, error)
	RemoveVoiceLogChannel(guildID string) error
}

// GuildChannels resolves a channel id within a guild.
type GuildChannels interface {
	GuildChannel(guildID, channelID string) (*discordgo.Channel, bool)
}

// EmbedSender delivers an embed to a channel. *discordgo.Session satisfies it.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Limiter paces sends per guild.
type Limiter interface {
	Wait(ctx context.Context, key string) error
	Success(key string)
	RateLimited(key string)
}

// Notifier posts voice transitions to the guild's voice log channel.
type Notifier struct {
	Store      ChannelStore
	Channels   GuildChannels
	Sender     EmbedSender
	Limiter    Limiter // optional
	PruneStale bool
	Log        zerolog.Logger
}

// Notify reports t for guildID. Every failure is logged here; nothing is
// returned to the event loop.
func (n *Notifier) Notify(ctx context.Context, guildID string, t Transition) {
	embed := Embed(t)
	if embed == nil {
		return
	}

	log := n.Log.With().Str("guild", guildID).Logger()

	channel, err := n.target(guildID)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return
	case errors.Is(err, ErrStaleChannel):
		log.Debug().Msg("Voice log channel no longer exists, skipping")
		if n.PruneStale {
			n.prune(log, guildID)
		}
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to read voice log channel")
		return
	}

	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx, guildID); err != nil {
			log.Warn().Err(err).Msg("Voice log send abandoned")
			return
		}
	}

	if _, err := n.Sender.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		if n.Limiter != nil && isTooManyRequests(err) {
			n.Limiter.RateLimited(guildID)
		}
		log.Error().Err(err).Str("channel", channel.ID).Msg("Failed to send voice log")
		return
	}
	if n.Limiter != nil {
		n.Limiter.Success(guildID)
	}
}

// target returns the configured channel if it still resolves in the guild.
func (n *Notifier) target(guildID string) (*discordgo.Channel, error) {
	channelID, err := n.Store.VoiceLogChannel(guildID)
	if err != nil {
		return nil, err
	}
	channel, ok := n.Channels.GuildChannel(guildID, channelID)
	if !ok {
		return nil, errors.WithStack(ErrStaleChannel)
	}
	return channel, nil
}

func (n *Notifier) prune(log zerolog.Logger, guildID string) {
	err := n.Store.RemoveVoiceLogChannel(guildID)
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		log.Error().Err(err).Msg("Failed to prune stale voice log channel")
		return
	}
	log.Info().Msg("Pruned stale voice log channel")
}

func isTooManyRequests(err error) bool {
	var limited *discordgo.RateLimitError
	if errors.As(err, &limited) {
		return true
	}
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == http.StatusTooManyRequests
	}
	return false
}
