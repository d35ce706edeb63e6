// Package logging builds the process logger: console or JSON output on
// stderr, an optional rotated log file, and the stdlib and discordgo loggers
// redirected into it.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string
	Format string // "console" or "json"
	File   string // empty disables the file sink
}

// New returns the logger and a closer for the file sink.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	var out io.Writer = os.Stderr
	if strings.EqualFold(cfg.Format, "console") || cfg.Format == "" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	return zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger(), closer
}

// ParseLevel falls back to info for unknown input.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Redirect routes the stdlib logger and discordgo's internal logger to log.
func Redirect(log zerolog.Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.With().Str("source", "stdlog").Logger())

	dg := log.With().Str("source", "discordgo").Logger()
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		dg.WithLevel(discordgoLevel(msgL)).Msg(fmt.Sprintf(format, a...))
	}
}

func discordgoLevel(msgL int) zerolog.Level {
	switch msgL {
	case discordgo.LogError:
		return zerolog.ErrorLevel
	case discordgo.LogWarning:
		return zerolog.WarnLevel
	case discordgo.LogInformational:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
