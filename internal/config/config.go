// /internal/config/config.go
package config

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	ClientID     string `env:"DISCORD_CLIENT_ID,required,notEmpty"`

	StoragePath          string        `env:"STORAGE_PATH" envDefault:"voiceLogDB.json"`
	StorageAutoSave      time.Duration `env:"STORAGE_AUTOSAVE_INTERVAL" envDefault:"0s"`
	StorageBackupCount   int           `env:"STORAGE_BACKUP_COUNT" envDefault:"3"`
	StorageHumanReadable bool          `env:"STORAGE_HUMAN_READABLE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`

	VoiceLogSendRate   float64 `env:"VOICE_LOG_SEND_RATE" envDefault:"5"`
	VoiceLogPruneStale bool    `env:"VOICE_LOG_PRUNE_STALE" envDefault:"false"`
}

// LoadDotEnv copies .env into the process environment. A missing file is fine.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

// Load reads .env (when present) and parses the process environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return parse(env.Options{})
}

// LoadFrom parses the given variables only, ignoring the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if cfg.StoragePath == "" {
		return nil, errors.New("STORAGE_PATH must not be empty")
	}
	if cfg.VoiceLogSendRate <= 0 {
		return nil, errors.Errorf("VOICE_LOG_SEND_RATE must be positive, got %v", cfg.VoiceLogSendRate)
	}
	return &cfg, nil
}
