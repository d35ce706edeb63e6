// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/keshon/voicelog/internal/config"
	"github.com/keshon/voicelog/internal/discord"
	"github.com/keshon/voicelog/internal/logging"
	"github.com/keshon/voicelog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	log, closer := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer closer.Close()
	logging.Redirect(log)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Discord bot error")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Msg("Discord bot exited cleanly")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Msg("Starting voice log bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath, storage.Options{
		HumanReadable: cfg.StorageHumanReadable,
		BackupCount:   cfg.StorageBackupCount,
		AutoSaveEvery: cfg.StorageAutoSave,
		Logger:        log.With().Str("component", "storage").Logger(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to flush storage")
		}
	}()

	bot := discord.NewBot(cfg, store, log)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Received signal, shutting down...")
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
