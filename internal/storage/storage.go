// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog"

	"github.com/keshon/voicelog/datastore"
)

// Storage owns the persisted per-guild bot settings.
type Storage struct {
	ds *datastore.DataStore
}

// Options tune the underlying document store.
type Options struct {
	HumanReadable bool
	BackupCount   int
	AutoSaveEvery time.Duration
	Logger        zerolog.Logger
}

func New(filePath string, opts Options) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.HumanReadable = opts.HumanReadable
	cfg.BackupCount = opts.BackupCount
	cfg.AutoSaveInterval = opts.AutoSaveEvery
	cfg.Logger = opts.Logger

	ds, err := datastore.New(cfg)
	if err != nil {
		return nil, &StorageFault{Op: "open", Err: err}
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Dump returns a copy of everything stored, for offline inspection.
func (s *Storage) Dump() (map[string]any, error) {
	doc, err := s.ds.Snapshot()
	if err != nil {
		return nil, &StorageFault{Op: "dump", Err: err}
	}
	return doc, nil
}

// idString normalizes a stored identifier. Older documents may carry numbers.
func idString(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	default:
		return "", errors.Errorf("unexpected identifier type %T", v)
	}
}
