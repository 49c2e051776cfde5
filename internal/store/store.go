package store

import (
	"errors"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

// ErrCorruptSnapshot is returned by Load when a snapshot exists but cannot
// be decoded. The default payload is returned alongside it.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Store defines the interface for persisting the latest ride snapshot and
// subscribing to new ones.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism lets the server push every saved snapshot to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Save replaces the current snapshot and notifies all subscribers.
	Save(p telemetry.Payload) error

	// Load returns the current snapshot. When none has been saved yet it
	// returns [telemetry.DefaultPayload] and a nil error.
	Load() (telemetry.Payload, error)

	// Exists reports whether a snapshot has been saved.
	Exists() bool

	// Subscribe returns a channel that receives every saved snapshot.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan telemetry.Payload

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan telemetry.Payload)
}
