// Package synchub is the realtime synchronization layer: a redis-backed
// pub/sub transport with per-key ordered, at-least-once delivery, and the hub
// that fans change events out to connected staff clients.
package synchub

import (
	"sync"

	"peerhaven/backend/internal/models"
)

// EventHandler receives change events for a subscribed channel key. Handlers
// must be idempotent: the transport delivers at least once, not exactly once.
type EventHandler func(evt models.Event)

// Handle identifies one active subscription. Unsubscribe is idempotent and
// safe to call from any goroutine, any number of times.
type Handle struct {
	channel string
	cancel  func()
	once    sync.Once
}

// NewHandle wraps a cancel function into a subscription handle. Transport
// implementations outside this package use it.
func NewHandle(channel string, cancel func()) *Handle {
	return &Handle{channel: channel, cancel: cancel}
}

// Channel returns the channel key the handle is subscribed to.
func (h *Handle) Channel() string { return h.channel }

// Unsubscribe detaches the handler. Events already in flight may still be
// delivered; after that the handler is never called again.
func (h *Handle) Unsubscribe() {
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// Transport is the publish/subscribe channel the triage core synchronizes
// over. Ordering is guaranteed per channel key only.
type Transport interface {
	Subscribe(channel string, fn EventHandler) *Handle
	Publish(evt models.Event) error
	// OnReconnect registers a hook invoked after the transport re-established
	// its subscriptions following a disconnect. Events missed during the
	// outage are not replayed; hooks should re-fetch current state.
	OnReconnect(fn func())
}
