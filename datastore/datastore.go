// Package datastore keeps a single JSON document on disk and addresses values
// inside it by path, e.g. "/voiceLogChannel/1234".
package datastore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
)

// ErrDataNotFound is returned when nothing is stored at the requested path.
const ErrDataNotFound = errors.Sentinel("datastore: no data at path")

// ErrClosed is returned by operations on a closed store.
const ErrClosed = errors.Sentinel("datastore: closed")

// Config holds configuration options for the DataStore
type Config struct {
	FilePath         string
	Separator        string        // path separator, "/" when empty
	SaveOnPush       bool          // flush to disk on every mutation
	HumanReadable    bool          // indent the document on disk
	AutoSaveInterval time.Duration // 0 disables the background saver
	BackupCount      int           // number of backup files to keep
	Logger           zerolog.Logger
}

// DefaultConfig returns a default configuration
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:    filePath,
		Separator:   "/",
		SaveOnPush:  true,
		BackupCount: 3,
		Logger:      zerolog.Nop(),
	}
}

type DataStore struct {
	mu           sync.RWMutex
	data         map[string]any
	file         string
	config       Config
	lastChecksum string
	closed       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the document at cfg.FilePath, creating an empty one when missing.
func New(cfg Config) (*DataStore, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("datastore: file path cannot be empty")
	}
	if cfg.Separator == "" {
		cfg.Separator = "/"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, errors.Wrap(err, "datastore: create directory")
	}

	ds := &DataStore{
		data:   make(map[string]any),
		file:   cfg.FilePath,
		config: cfg,
	}

	_, err := os.Stat(cfg.FilePath)
	switch {
	case os.IsNotExist(err):
		if err := ds.writeFileAtomic([]byte("{}")); err != nil {
			return nil, errors.Wrap(err, "datastore: create empty document")
		}
	case err == nil:
		if err := ds.loadFromFile(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrap(err, "datastore: stat document")
	}

	if cfg.AutoSaveInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		ds.cancel = cancel
		ds.wg.Add(1)
		go ds.autoSave(ctx)
	}

	return ds, nil
}

// Push stores value at path, creating intermediate objects as needed.
// With SaveOnPush the change is rolled back when it cannot be written.
func (ds *DataStore) Push(path string, value any) error {
	keys, err := ds.split(path)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	parent, undo, err := ds.walk(keys[:len(keys)-1], true)
	if err != nil {
		return err
	}
	leaf := keys[len(keys)-1]
	prev, hadPrev := parent[leaf]
	parent[leaf] = value

	if !ds.config.SaveOnPush {
		return nil
	}
	if err := ds.saveLocked(); err != nil {
		if hadPrev {
			parent[leaf] = prev
		} else {
			delete(parent, leaf)
		}
		undo()
		return err
	}
	return nil
}

// GetData returns the value stored at path.
func (ds *DataStore) GetData(path string) (any, error) {
	keys, err := ds.split(path)
	if err != nil {
		return nil, err
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.closed {
		return nil, ErrClosed
	}

	parent, _, err := ds.walk(keys[:len(keys)-1], false)
	if err != nil {
		return nil, err
	}
	value, ok := parent[keys[len(keys)-1]]
	if !ok {
		return nil, errors.WithStack(ErrDataNotFound)
	}
	return value, nil
}

// Exists reports whether anything is stored at path.
func (ds *DataStore) Exists(path string) bool {
	_, err := ds.GetData(path)
	return err == nil
}

// Delete removes the value at path. It returns ErrDataNotFound when there is
// nothing to remove, in which case the document is left untouched.
func (ds *DataStore) Delete(path string) error {
	keys, err := ds.split(path)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	parent, _, err := ds.walk(keys[:len(keys)-1], false)
	if err != nil {
		return err
	}
	leaf := keys[len(keys)-1]
	prev, ok := parent[leaf]
	if !ok {
		return errors.WithStack(ErrDataNotFound)
	}
	delete(parent, leaf)

	if !ds.config.SaveOnPush {
		return nil
	}
	if err := ds.saveLocked(); err != nil {
		parent[leaf] = prev
		return err
	}
	return nil
}

// Snapshot returns a deep copy of the whole document.
func (ds *DataStore) Snapshot() (map[string]any, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	raw, err := json.Marshal(ds.data)
	if err != nil {
		return nil, errors.Wrap(err, "datastore: marshal snapshot")
	}
	return decode(raw)
}

// Close stops the background saver and flushes the document.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	if ds.cancel != nil {
		ds.cancel()
	}
	ds.wg.Wait()

	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.saveLocked()
}

func (ds *DataStore) split(path string) ([]string, error) {
	var keys []string
	for _, k := range strings.Split(path, ds.config.Separator) {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, errors.Errorf("datastore: invalid path %q", path)
	}
	return keys, nil
}

// walk descends through keys and returns the object found there. Missing
// objects are created when create is set, otherwise ErrDataNotFound. undo
// removes the objects walk created and is never nil.
func (ds *DataStore) walk(keys []string, create bool) (node map[string]any, undo func(), err error) {
	undo = func() {}
	created := false
	node = ds.data
	for i, k := range keys {
		next, ok := node[k]
		if !ok {
			if !create {
				return nil, undo, errors.WithStack(ErrDataNotFound)
			}
			child := make(map[string]any)
			node[k] = child
			// Later objects are created inside the first one.
			if !created {
				created = true
				owner, key := node, k
				undo = func() { delete(owner, key) }
			}
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			if !create {
				return nil, undo, errors.WithStack(ErrDataNotFound)
			}
			return nil, undo, errors.Errorf("datastore: %q is not an object", strings.Join(keys[:i+1], ds.config.Separator))
		}
		node = child
	}
	return node, undo, nil
}

// saveLocked writes the document atomically. Callers hold ds.mu.
func (ds *DataStore) saveLocked() error {
	var (
		data []byte
		err  error
	)
	if ds.config.HumanReadable {
		data, err = json.MarshalIndent(ds.data, "", "  ")
	} else {
		data, err = json.Marshal(ds.data)
	}
	if err != nil {
		return errors.Wrap(err, "datastore: marshal document")
	}

	checksum := calculateChecksum(data)
	if checksum == ds.lastChecksum {
		return nil
	}

	if ds.config.BackupCount > 0 {
		if err := ds.createBackup(); err != nil {
			ds.config.Logger.Warn().Err(err).Str("file", ds.file).Msg("Failed to create backup")
		}
	}

	if err := ds.writeFileAtomic(data); err != nil {
		return err
	}
	if err := ds.verifyFile(checksum); err != nil {
		return err
	}

	ds.lastChecksum = checksum
	return nil
}

func (ds *DataStore) loadFromFile() error {
	raw, err := os.ReadFile(ds.file)
	if err != nil {
		return errors.Wrap(err, "datastore: read document")
	}

	data, err := decode(raw)
	if err != nil {
		return errors.Wrapf(err, "datastore: invalid JSON in %s", ds.file)
	}

	ds.data = data
	ds.lastChecksum = calculateChecksum(raw)
	return nil
}

// writeFileAtomic writes to a temporary file, syncs it and renames it over
// the document.
func (ds *DataStore) writeFileAtomic(data []byte) error {
	tmpFile := ds.file + ".tmp"

	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "datastore: open temp file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return errors.Wrap(err, "datastore: write temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return errors.Wrap(err, "datastore: sync temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpFile)
		return errors.Wrap(err, "datastore: close temp file")
	}

	if err := os.Rename(tmpFile, ds.file); err != nil {
		os.Remove(tmpFile)
		return errors.Wrap(err, "datastore: rename temp file")
	}
	return nil
}

func (ds *DataStore) verifyFile(checksum string) error {
	actual, err := os.ReadFile(ds.file)
	if err != nil {
		return errors.Wrap(err, "datastore: read back document")
	}
	if calculateChecksum(actual) != checksum {
		return errors.New("datastore: checksum mismatch after write")
	}
	return nil
}

// createBackup copies the current document to a timestamped backup.
func (ds *DataStore) createBackup() error {
	if _, err := os.Stat(ds.file); os.IsNotExist(err) {
		return nil
	}

	backupFile := fmt.Sprintf("%s.backup.%s", ds.file, time.Now().Format("20060102_150405.000000000"))

	src, err := os.Open(ds.file)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(backupFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	ds.cleanupOldBackups()
	return nil
}

// cleanupOldBackups removes the oldest backups beyond BackupCount.
func (ds *DataStore) cleanupOldBackups() {
	matches, err := filepath.Glob(ds.file + ".backup.*")
	if err != nil || len(matches) <= ds.config.BackupCount {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			files = append(files, fileInfo{m, info.ModTime()})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	for i := 0; i < len(files)-ds.config.BackupCount; i++ {
		os.Remove(files[i].path)
	}
}

func (ds *DataStore) autoSave(ctx context.Context) {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.config.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ds.mu.Lock()
			err := ds.saveLocked()
			ds.mu.Unlock()
			if err != nil {
				ds.config.Logger.Error().Err(err).Str("file", ds.file).Msg("Auto-save failed")
			}
		}
	}
}

func decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
