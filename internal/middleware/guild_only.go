package middleware

import (
	"context"

	"github.com/keshon/voicelog/internal/command"
	"github.com/keshon/voicelog/pkg/cmd"
)

// WithGuildOnly drops prefix commands sent outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := inv.Data.(*command.MessageContext); ok && v.Event.GuildID == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithHumanAuthor drops prefix commands sent by bots, including this one.
func WithHumanAuthor() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := inv.Data.(*command.MessageContext); ok {
				if v.Event.Author == nil || v.Event.Author.Bot {
					return nil
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
