package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

// FileStore is a [Store] backed by a JSON file.
//
// The file can be shared with another process: Load always reads the file,
// so a server can serve snapshots written by a separate calculator. Writes
// go to a temporary file that is renamed over the target, so readers never
// observe a partial snapshot.
type FileStore struct {
	hub

	path string
	mu   sync.Mutex // serialises writers
}

// NewFileStore creates a [FileStore] for path. The parent directory is
// created on first Save if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file path.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes p as indented JSON and notifies all subscribers.
func (f *FileStore) Save(p telemetry.Payload) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	f.mu.Lock()
	err = writeFileAtomic(f.path, data)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.publish(p)
	return nil
}

// Load reads the snapshot file.
//
// A missing file yields the default payload and a nil error. An unreadable
// or undecodable file yields the default payload and an error.
func (f *FileStore) Load() (telemetry.Payload, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return telemetry.DefaultPayload(time.Now()), nil
	}
	if err != nil {
		return telemetry.DefaultPayload(time.Now()), fmt.Errorf("failed to read snapshot: %w", err)
	}

	var p telemetry.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return telemetry.DefaultPayload(time.Now()), fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, f.path, err)
	}
	return p, nil
}

// Exists reports whether the snapshot file is present.
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
