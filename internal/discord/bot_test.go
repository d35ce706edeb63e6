package discord

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/voicelog/internal/config"
	"github.com/keshon/voicelog/internal/storage"
)

const (
	guildID = "100"
	logsID  = "200"
	voiceA  = "300"
	voiceB  = "301"
)

type fakeSession struct {
	replies []string
	embeds  map[string][]*discordgo.MessageEmbed
}

func (f *fakeSession) ChannelMessageSendReply(_ string, content string, _ *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.replies = append(f.replies, content)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.embeds == nil {
		f.embeds = map[string][]*discordgo.MessageEmbed{}
	}
	f.embeds[channelID] = append(f.embeds[channelID], embed)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) sentCount() int {
	n := 0
	for _, e := range f.embeds {
		n += len(e)
	}
	return n
}

func newState(t *testing.T) *discordgo.State {
	t.Helper()
	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: guildID, Name: "test"}))
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: "other", Name: "other"}))
	for _, ch := range []*discordgo.Channel{
		{ID: logsID, GuildID: guildID, Name: "logs", Type: discordgo.ChannelTypeGuildText},
		{ID: voiceA, GuildID: guildID, Name: "General", Type: discordgo.ChannelTypeGuildVoice},
		{ID: voiceB, GuildID: guildID, Name: "Gaming", Type: discordgo.ChannelTypeGuildVoice},
		{ID: "900", GuildID: "other", Name: "elsewhere", Type: discordgo.ChannelTypeGuildText},
	} {
		require.NoError(t, state.ChannelAdd(ch))
	}
	return state
}

func newTestBot(t *testing.T) (*Bot, *fakeSession, *bytes.Buffer) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "voiceLogDB.json"), storage.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var buf bytes.Buffer
	b := NewBot(&config.Config{ClientID: "bot", VoiceLogSendRate: 100}, store, zerolog.New(&buf))

	session := &fakeSession{}
	b.channels = &StateChannels{State: newState(t)}
	b.notifier.Channels = b.channels
	b.notifier.Sender = session
	b.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return b, session, &buf
}

func message(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "1",
		ChannelID: "50",
		GuildID:   guildID,
		Content:   content,
		Author:    &discordgo.User{ID: "7", Username: "alice"},
	}}
}

func voiceUpdate(before, after string) *discordgo.VoiceStateUpdate {
	user := &discordgo.User{ID: "7", Username: "alice", Discriminator: "0"}
	vs := &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: guildID, UserID: user.ID, ChannelID: after, Member: &discordgo.Member{User: user}},
	}
	if before != "" {
		vs.BeforeUpdate = &discordgo.VoiceState{GuildID: guildID, UserID: user.ID, ChannelID: before}
	}
	return vs
}

func TestJoinIsLoggedToConfiguredChannel(t *testing.T) {
	b, session, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, session, message("/setvclog <#"+logsID+">"))
	require.Equal(t, []string{"Voice log channel set to <#200>"}, session.replies)

	b.handleVoiceState(ctx, voiceUpdate("", voiceA))

	require.Equal(t, 1, session.sentCount())
	embed := session.embeds[logsID][0]
	assert.Equal(t, "alice", embed.Author.Name)
	assert.Contains(t, embed.Description, "joined voice channel")
	assert.Contains(t, embed.Description, "General")
}

func TestMoveWithoutConfigSendsNothing(t *testing.T) {
	b, session, _ := newTestBot(t)

	b.handleVoiceState(context.Background(), voiceUpdate(voiceA, voiceB))

	assert.Zero(t, session.sentCount())
}

func TestStateTrackingFillsPreviousChannel(t *testing.T) {
	b, session, _ := newTestBot(t)
	require.NoError(t, b.storage.SetVoiceLogChannel(guildID, logsID))

	state := b.channels.State
	state.TrackVoice = true
	dg := &discordgo.Session{StateEnabled: true, State: state}
	user := &discordgo.User{ID: "7", Username: "alice", Discriminator: "0"}

	for _, channelID := range []string{voiceA, voiceB, ""} {
		vs := &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
			GuildID:   guildID,
			UserID:    user.ID,
			ChannelID: channelID,
			Member:    &discordgo.Member{User: user},
		}}
		require.NoError(t, state.OnInterface(dg, vs))
		b.handleVoiceState(context.Background(), vs)
	}

	embeds := session.embeds[logsID]
	require.Len(t, embeds, 3)
	assert.Contains(t, embeds[0].Description, "joined voice channel:** `General`")
	assert.Contains(t, embeds[1].Description, "moved from voice channel:** `General` **to** `Gaming`")
	assert.Contains(t, embeds[2].Description, "left voice channel:** `Gaming`")
}

func TestMuteIsNotLogged(t *testing.T) {
	b, session, _ := newTestBot(t)
	require.NoError(t, b.storage.SetVoiceLogChannel(guildID, logsID))

	b.handleVoiceState(context.Background(), voiceUpdate(voiceA, voiceA))

	assert.Zero(t, session.sentCount())
}

func TestGetVoiceLogWithChannelFromAnotherGuild(t *testing.T) {
	b, session, _ := newTestBot(t)
	require.NoError(t, b.storage.SetVoiceLogChannel(guildID, "900"))

	b.handleMessage(context.Background(), session, message("/getvclog"))

	assert.Equal(t, []string{"The saved channel no longer exists."}, session.replies)
}

func TestRecoverHandler(t *testing.T) {
	b, _, buf := newTestBot(t)

	assert.NotPanics(t, func() {
		defer b.recoverHandler("test")
		panic("boom")
	})
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), `"event":"test"`)
}

func TestOnReadyWarnsOnClientMismatch(t *testing.T) {
	b, _, buf := newTestBot(t)

	b.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "someone-else", Username: "bot"}})

	assert.Contains(t, buf.String(), "DISCORD_CLIENT_ID does not match")
	assert.Contains(t, buf.String(), "Logged in")
	assert.Contains(t, buf.String(), `"commands":["getvclog","rmvclog","setvclog"]`)
}

func TestStateChannels(t *testing.T) {
	c := &StateChannels{State: newState(t)}

	ch, ok := c.GuildChannel(guildID, logsID)
	require.True(t, ok)
	assert.Equal(t, "logs", ch.Name)

	_, ok = c.GuildChannel(guildID, "900")
	assert.False(t, ok)
	_, ok = c.GuildChannel(guildID, "404")
	assert.False(t, ok)

	var empty *StateChannels
	_, ok = empty.GuildChannel(guildID, logsID)
	assert.False(t, ok)
}
