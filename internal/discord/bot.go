package discord

import (
	"context"
	"runtime/debug"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/voicelog/internal/command"
	"github.com/keshon/voicelog/internal/config"
	"github.com/keshon/voicelog/internal/middleware"
	"github.com/keshon/voicelog/internal/storage"
	"github.com/keshon/voicelog/internal/voicelog"
	"github.com/keshon/voicelog/pkg/ratelimit"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	channels *StateChannels
	router   *command.Router
	notifier *voicelog.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewBot wires the command router and voice notifier around store.
func NewBot(cfg *config.Config, store *storage.Storage, log zerolog.Logger) *Bot {
	b := &Bot{
		cfg:     cfg,
		storage: store,
		log:     log,
		now:     time.Now,
	}
	b.router = command.NewRouter(
		middleware.WithCommandLogger(log),
		middleware.WithGuildOnly(),
		middleware.WithHumanAuthor(),
	)

	rps := rate.Limit(cfg.VoiceLogSendRate)
	b.notifier = &voicelog.Notifier{
		Store:      store,
		Limiter:    ratelimit.NewKeyed(ratelimit.Config{Initial: rps, Min: rps / 4, Max: rps * 2, StepUp: 1, StepDown: 0.5}),
		PruneStale: cfg.VoiceLogPruneStale,
		Log:        log.With().Str("component", "voicelog").Logger(),
	}
	return b
}

// Run connects to the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return errors.Wrap(err, "create session")
	}
	b.dg = dg
	b.channels = &StateChannels{State: dg.State}
	b.notifier.Channels = b.channels
	b.notifier.Sender = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	dg.ShouldRetryOnRateLimit = false
	dg.State.TrackVoice = true
	dg.State.TrackChannels = true

	dg.AddHandler(b.onReady)
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		defer b.recoverHandler("message create")
		b.handleMessage(ctx, s, m)
	})
	dg.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		defer b.recoverHandler("voice state update")
		b.handleVoiceState(ctx, vs)
	})

	if err := dg.Open(); err != nil {
		return errors.Wrap(err, "open Discord session")
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	defer b.recoverHandler("ready")

	if r.User == nil {
		return
	}
	if r.User.ID != b.cfg.ClientID {
		b.log.Warn().Str("session_user", r.User.ID).Str("client_id", b.cfg.ClientID).
			Msg("DISCORD_CLIENT_ID does not match the bot user")
	}
	b.log.Info().
		Str("user", voicelog.UserTag(r.User)).
		Int("guilds", len(r.Guilds)).
		Strs("commands", b.router.Commands()).
		Msg("Logged in")
}

func (b *Bot) handleMessage(ctx context.Context, s command.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	b.router.Dispatch(ctx, &command.MessageContext{
		Session:  s,
		Channels: b.channels,
		Storage:  b.storage,
		Event:    m,
	})
}

func (b *Bot) handleVoiceState(ctx context.Context, vs *discordgo.VoiceStateUpdate) {
	if vs.VoiceState == nil || vs.GuildID == "" {
		return
	}
	t := voicelog.FromVoiceStateUpdate(vs, b.channels, b.now())
	b.notifier.Notify(ctx, vs.GuildID, t)
}

// recoverHandler keeps a panicking handler from taking the process down.
func (b *Bot) recoverHandler(event string) {
	if r := recover(); r != nil {
		b.log.Error().
			Str("event", event).
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("Recovered from panic in event handler")
	}
}
