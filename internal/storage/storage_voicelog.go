package storage

import (
	"strings"

	"emperror.dev/errors"

	"github.com/keshon/voicelog/datastore"
)

const voiceLogRoot = "/voiceLogChannel/"

// checkID rejects ids that would not map to exactly one key under voiceLogRoot.
func checkID(kind, id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return errors.WithMessagef(ErrInvalidID, "%s %q", kind, id)
	}
	return nil
}

func voiceLogPath(guildID string) (string, error) {
	if err := checkID("guild", guildID); err != nil {
		return "", err
	}
	return voiceLogRoot + guildID, nil
}

// SetVoiceLogChannel points the guild's voice log at channelID, replacing any
// previous channel.
func (s *Storage) SetVoiceLogChannel(guildID, channelID string) error {
	path, err := voiceLogPath(guildID)
	if err != nil {
		return err
	}
	if err := checkID("channel", channelID); err != nil {
		return err
	}
	if err := s.ds.Push(path, channelID); err != nil {
		return &StorageFault{Op: "set voice log channel", GuildID: guildID, Err: err}
	}
	return nil
}

// VoiceLogChannel returns the guild's voice log channel, or ErrNotConfigured.
func (s *Storage) VoiceLogChannel(guildID string) (string, error) {
	path, err := voiceLogPath(guildID)
	if err != nil {
		return "", err
	}
	v, err := s.ds.GetData(path)
	if errors.Is(err, datastore.ErrDataNotFound) {
		return "", ErrNotConfigured
	}
	if err != nil {
		return "", &StorageFault{Op: "get voice log channel", GuildID: guildID, Err: err}
	}

	channelID, err := idString(v)
	if err != nil {
		return "", &StorageFault{Op: "get voice log channel", GuildID: guildID, Err: err}
	}
	if channelID == "" {
		return "", ErrNotConfigured
	}
	return channelID, nil
}

// RemoveVoiceLogChannel clears the guild's voice log channel. It returns
// ErrNotConfigured when none was set.
func (s *Storage) RemoveVoiceLogChannel(guildID string) error {
	path, err := voiceLogPath(guildID)
	if err != nil {
		return err
	}
	err = s.ds.Delete(path)
	if errors.Is(err, datastore.ErrDataNotFound) {
		return ErrNotConfigured
	}
	if err != nil {
		return &StorageFault{Op: "remove voice log channel", GuildID: guildID, Err: err}
	}
	return nil
}
