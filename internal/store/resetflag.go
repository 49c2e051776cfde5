package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ResetFlag is a file whose presence asks the calculator to start a new
// session.
//
// The server writes the flag; the calculator consumes it. Only requests
// younger than the reset window are honoured, so a flag left behind by a
// crashed calculator does not wipe the next session.
type ResetFlag struct {
	path string
}

// NewResetFlag creates a [ResetFlag] at path.
func NewResetFlag(path string) *ResetFlag {
	return &ResetFlag{path: path}
}

// Path returns the flag file path.
func (r *ResetFlag) Path() string {
	return r.path
}

// Request writes the flag with the request time as epoch seconds.
func (r *ResetFlag) Request(now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create reset flag directory: %w", err)
	}
	stamp := strconv.FormatFloat(float64(now.UnixNano())/1e9, 'f', 6, 64)
	if err := os.WriteFile(r.path, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("failed to write reset flag: %w", err)
	}
	return nil
}

// Consume reports whether a reset was requested within window of now and
// removes the flag. Stale flags are removed and reported as false.
func (r *ResetFlag) Consume(now time.Time, window time.Duration) (bool, error) {
	info, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat reset flag: %w", err)
	}

	fresh := now.Sub(info.ModTime()) < window

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fresh, fmt.Errorf("failed to remove reset flag: %w", err)
	}
	return fresh, nil
}
