package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/voicelog/internal/command"
	"github.com/keshon/voicelog/pkg/cmd"
)

// WithCommandLogger logs every command that runs, with its outcome. It is the
// only place a failed command is logged.
func WithCommandLogger(log zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev = ev.Str("command", c.Name()).Dur("took", time.Since(start))
			if v, ok := inv.Data.(*command.MessageContext); ok {
				ev = ev.Str("guild", v.Event.GuildID).Str("channel", v.Event.ChannelID)
				if v.Event.Author != nil {
					ev = ev.Str("user", v.Event.Author.ID).Str("username", v.Event.Author.Username)
				}
			}
			ev.Msg("Command executed")
			return err
		})
	}
}
