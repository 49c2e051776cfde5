package store

import (
	"sync"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

// subscriberBuffer is the channel buffer handed to each subscriber.
const subscriberBuffer = 100

// hub fans snapshots out to subscribers. The zero value is ready to use.
//
// Sends are non-blocking: if a subscriber's buffer is full the snapshot is
// dropped for that subscriber rather than blocking the writer.
type hub struct {
	mu          sync.RWMutex
	subscribers map[chan telemetry.Payload]struct{}
}

// Subscribe creates a new subscription with a buffer of 100 snapshots.
func (h *hub) Subscribe() <-chan telemetry.Payload {
	ch := make(chan telemetry.Payload, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers == nil {
		h.subscribers = make(map[chan telemetry.Payload]struct{})
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (h *hub) Unsubscribe(ch <-chan telemetry.Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (h *hub) publish(p telemetry.Payload) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- p:
		default:
			// subscriber is slow, drop the snapshot
		}
	}
}
