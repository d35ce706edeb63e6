package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestStorage(t testing.TB) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voiceLogDB.json")
	s, err := New(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

var snowflake = rapid.StringMatching(`[1-9][0-9]{16,18}`)

func TestProperty_UnconfiguredGuildIsNotConfigured(t *testing.T) {
	s, _ := newTestStorage(t)

	rapid.Check(t, func(rt *rapid.T) {
		guild := snowflake.Draw(rt, "guild")
		if _, err := s.VoiceLogChannel(guild); !errors.Is(err, ErrNotConfigured) {
			rt.Fatalf("expected ErrNotConfigured for %s, got %v", guild, err)
		}
		if err := s.RemoveVoiceLogChannel(guild); !errors.Is(err, ErrNotConfigured) || IsStorageFault(err) {
			rt.Fatalf("expected ErrNotConfigured on remove for %s, got %v", guild, err)
		}
	})
}

func TestProperty_SetThenGetRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, _ := newTestStorage(t)
		guild := snowflake.Draw(rt, "guild")
		channel := snowflake.Draw(rt, "channel")

		if err := s.SetVoiceLogChannel(guild, channel); err != nil {
			rt.Fatalf("set: %v", err)
		}
		got, err := s.VoiceLogChannel(guild)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got != channel {
			rt.Fatalf("expected %s, got %s", channel, got)
		}
	})
}

func TestProperty_LastWriteWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, _ := newTestStorage(t)
		guild := snowflake.Draw(rt, "guild")
		channels := rapid.SliceOfN(snowflake, 2, 6).Draw(rt, "channels")

		for _, c := range channels {
			if err := s.SetVoiceLogChannel(guild, c); err != nil {
				rt.Fatalf("set: %v", err)
			}
		}
		got, err := s.VoiceLogChannel(guild)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if want := channels[len(channels)-1]; got != want {
			rt.Fatalf("expected %s, got %s", want, got)
		}
	})
}

func TestRemove(t *testing.T) {
	s, _ := newTestStorage(t)

	require.NoError(t, s.SetVoiceLogChannel("1", "10"))
	require.NoError(t, s.SetVoiceLogChannel("2", "20"))
	require.NoError(t, s.RemoveVoiceLogChannel("1"))

	_, err := s.VoiceLogChannel("1")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	got, err := s.VoiceLogChannel("2")
	require.NoError(t, err)
	assert.Equal(t, "20", got)

	assert.True(t, errors.Is(s.RemoveVoiceLogChannel("1"), ErrNotConfigured))
}

func TestRemoveUnconfiguredLeavesDocumentAlone(t *testing.T) {
	s, path := newTestStorage(t)
	require.NoError(t, s.SetVoiceLogChannel("1", "10"))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = s.RemoveVoiceLogChannel("2")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInvalidIDsLeaveOtherGuildsAlone(t *testing.T) {
	s, path := newTestStorage(t)
	require.NoError(t, s.SetVoiceLogChannel("1", "10"))
	require.NoError(t, s.SetVoiceLogChannel("2", "20"))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, guild := range []string{"", "  ", "1/x", "/"} {
		assert.ErrorIs(t, s.SetVoiceLogChannel(guild, "99"), ErrInvalidID, "set %q", guild)
		assert.ErrorIs(t, s.RemoveVoiceLogChannel(guild), ErrInvalidID, "remove %q", guild)
		_, err := s.VoiceLogChannel(guild)
		assert.ErrorIs(t, err, ErrInvalidID, "get %q", guild)
	}
	assert.ErrorIs(t, s.SetVoiceLogChannel("1", ""), ErrInvalidID)
	assert.ErrorIs(t, s.SetVoiceLogChannel("1", "9/9"), ErrInvalidID)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := s.VoiceLogChannel("1")
	require.NoError(t, err)
	assert.Equal(t, "10", got)
	got, err = s.VoiceLogChannel("2")
	require.NoError(t, err)
	assert.Equal(t, "20", got)
}

func TestPersistedLayout(t *testing.T) {
	s, path := newTestStorage(t)
	require.NoError(t, s.SetVoiceLogChannel("42", "4242"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"voiceLogChannel":{"42":"4242"}}`, string(raw))
}

func TestNumericChannelIDsAreAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceLogDB.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"voiceLogChannel":{"42":987654321098765432}}`), 0o644))

	s, err := New(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.VoiceLogChannel("42")
	require.NoError(t, err)
	assert.Equal(t, "987654321098765432", got)
}

func TestUnexpectedValueIsStorageFault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceLogDB.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"voiceLogChannel":{"42":{"nested":true}}}`), 0o644))

	s, err := New(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.VoiceLogChannel("42")
	assert.True(t, IsStorageFault(err))
}

func TestWriteFailureIsStorageFault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := New(filepath.Join(dir, "voiceLogDB.json"), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = s.SetVoiceLogChannel("1", "10")
	require.Error(t, err)
	assert.True(t, IsStorageFault(err))
	assert.False(t, errors.Is(err, ErrNotConfigured))

	_, err = s.VoiceLogChannel("1")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestCorruptDocumentIsStorageFault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceLogDB.json")
	require.NoError(t, os.WriteFile(path, []byte(`[`), 0o644))

	_, err := New(path, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, IsStorageFault(err))
}

func TestConcurrentGuilds(t *testing.T) {
	s, _ := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			guild := string(rune('a' + i))
			assert.NoError(t, s.SetVoiceLogChannel(guild, guild+"-log"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		guild := string(rune('a' + i))
		got, err := s.VoiceLogChannel(guild)
		require.NoError(t, err)
		assert.Equal(t, guild+"-log", got)
	}
}

func TestDump(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.SetVoiceLogChannel("1", "10"))

	doc, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "10"}, doc["voiceLogChannel"])
}
