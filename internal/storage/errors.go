package storage

import (
	"fmt"

	"emperror.dev/errors"
)

// ErrNotConfigured means the guild has no voice log channel. It is an
// expected state, not a failure.
const ErrNotConfigured = errors.Sentinel("voice log channel not configured")

// ErrInvalidID means a guild or channel id cannot be used as a document key.
const ErrInvalidID = errors.Sentinel("invalid id")

// StorageFault wraps an I/O or decoding failure of the persisted document.
type StorageFault struct {
	Op      string
	GuildID string
	Err     error
}

func (f *StorageFault) Error() string {
	if f.GuildID == "" {
		return fmt.Sprintf("storage %s: %v", f.Op, f.Err)
	}
	return fmt.Sprintf("storage %s for guild %s: %v", f.Op, f.GuildID, f.Err)
}

func (f *StorageFault) Unwrap() error { return f.Err }

// IsStorageFault reports whether err carries a StorageFault.
func IsStorageFault(err error) bool {
	var f *StorageFault
	return errors.As(err, &f)
}
