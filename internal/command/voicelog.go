package command

import (
	"context"
	"fmt"

	"emperror.dev/errors"

	"github.com/keshon/voicelog/internal/storage"
	"github.com/keshon/voicelog/pkg/cmd"
)

const (
	msgMentionChannel = "Please mention a valid channel."
	msgSetFailed      = "There was an error saving the channel settings."
	msgRemoved        = "Voice log channel removed."
	msgNothingRemoved = "No voice log channel was set."
	msgRemoveFailed   = "There was an error removing the channel settings."
	msgNoneSet        = "No voice log channel is set."
	msgStaleChannel   = "The saved channel no longer exists."
	msgGetFailed      = "There was an error retrieving the channel settings."
)

func messageContext(inv *cmd.Invocation) (*MessageContext, bool) {
	mc, ok := inv.Data.(*MessageContext)
	return mc, ok && mc != nil && mc.Event != nil
}

// fail replies with a generic message and returns the original error so the
// router can log it.
func fail(mc *MessageContext, err error, reply string) error {
	return errors.Combine(err, errors.WithMessage(mc.Reply(reply), "reply"))
}

// SetVoiceLogCommand handles "setvclog #channel".
type SetVoiceLogCommand struct{}

func (c *SetVoiceLogCommand) Name() string        { return "setvclog" }
func (c *SetVoiceLogCommand) Description() string { return "Set the channel that receives voice join/leave/move logs" }

func (c *SetVoiceLogCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := messageContext(inv)
	if !ok {
		return nil
	}

	channel, ok := mc.MentionedChannel()
	if !ok {
		return mc.Reply(msgMentionChannel)
	}

	if err := mc.Storage.SetVoiceLogChannel(mc.Event.GuildID, channel.ID); err != nil {
		return fail(mc, err, msgSetFailed)
	}
	return mc.Reply(fmt.Sprintf("Voice log channel set to %s", channel.Mention()))
}

// RemoveVoiceLogCommand handles "rmvclog".
type RemoveVoiceLogCommand struct{}

func (c *RemoveVoiceLogCommand) Name() string        { return "rmvclog" }
func (c *RemoveVoiceLogCommand) Description() string { return "Stop logging voice activity" }

func (c *RemoveVoiceLogCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := messageContext(inv)
	if !ok {
		return nil
	}

	err := mc.Storage.RemoveVoiceLogChannel(mc.Event.GuildID)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return mc.Reply(msgNothingRemoved)
	case err != nil:
		return fail(mc, err, msgRemoveFailed)
	}
	return mc.Reply(msgRemoved)
}

// GetVoiceLogCommand handles "getvclog".
type GetVoiceLogCommand struct{}

func (c *GetVoiceLogCommand) Name() string        { return "getvclog" }
func (c *GetVoiceLogCommand) Description() string { return "Show the current voice log channel" }

func (c *GetVoiceLogCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := messageContext(inv)
	if !ok {
		return nil
	}

	channelID, err := mc.Storage.VoiceLogChannel(mc.Event.GuildID)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return mc.Reply(msgNoneSet)
	case err != nil:
		return fail(mc, err, msgGetFailed)
	}

	channel, ok := mc.Channels.GuildChannel(mc.Event.GuildID, channelID)
	if !ok {
		return mc.Reply(msgStaleChannel)
	}
	return mc.Reply(fmt.Sprintf("Current voice log channel is: %s", channel.Mention()))
}
