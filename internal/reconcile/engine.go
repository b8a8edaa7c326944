// Package reconcile merges locally-created placeholder records with the
// authoritative versions arriving over the sync transport. Every logical
// write converges to exactly one displayed record: the placeholder is shown
// immediately for responsiveness and retired when its echo arrives.
package reconcile

import (
	"encoding/json"
	"sync"
	"time"

	"peerhaven/backend/internal/models"

	"github.com/google/uuid"
)

// State is the two-phase record state plus the terminal timeout marker.
type State string

const (
	// StatePending marks a local placeholder not yet confirmed.
	StatePending State = "pending"
	// StateConfirmed marks a record backed by an authoritative echo.
	StateConfirmed State = "confirmed"
	// StateUnconfirmed is the terminal soft-fallback state for a placeholder
	// whose echo never arrived inside the timeout. The write may still have
	// succeeded server-side.
	StateUnconfirmed State = "unconfirmed"
)

// Payload is the content identity used to match a placeholder against an
// incoming event: same author, same body, same target. Matching is never by
// id, since the placeholder id is locally generated and unknown to the
// transport.
type Payload struct {
	AuthorPseudonym string
	Body            string
	Target          string
}

// Entry is one row of the visible list. While pending, ID is the temporary
// local id; once confirmed it carries the authoritative id and record.
type Entry struct {
	ID      string
	State   State
	Payload Payload
	Record  json.RawMessage
}

// Identify extracts the authoritative id and content identity from an event
// record. ok is false when the record cannot be parsed; such events are
// ignored rather than failing the engine.
type Identify func(record json.RawMessage) (id string, p Payload, ok bool)

// ChatMessageIdentity identifies models.ChatMessage records.
func ChatMessageIdentity(record json.RawMessage) (string, Payload, bool) {
	var msg models.ChatMessage
	if err := json.Unmarshal(record, &msg); err != nil || msg.ID == "" {
		return "", Payload{}, false
	}
	return msg.ID, Payload{
		AuthorPseudonym: msg.SenderPseudonym,
		Body:            msg.Body,
		Target:          msg.SessionID,
	}, true
}

// ReplyIdentity identifies models.Reply records.
func ReplyIdentity(record json.RawMessage) (string, Payload, bool) {
	var reply models.Reply
	if err := json.Unmarshal(record, &reply); err != nil || reply.ID == "" {
		return "", Payload{}, false
	}
	return reply.ID, Payload{
		AuthorPseudonym: reply.AuthorPseudonym,
		Body:            reply.Body,
		Target:          reply.PostID,
	}, true
}

// Engine owns one screen's visible list. It is owned exclusively by the view
// that created it; coordination with other viewers happens through the
// transport, never through shared memory.
type Engine struct {
	mu       sync.Mutex
	entries  []Entry
	timers   map[string]*time.Timer
	timeout  time.Duration
	identify Identify
	closed   bool
}

// NewEngine creates an engine. timeout bounds how long a placeholder may stay
// pending before it degrades to unconfirmed.
func NewEngine(timeout time.Duration, identify Identify) *Engine {
	return &Engine{
		timers:   make(map[string]*time.Timer),
		timeout:  timeout,
		identify: identify,
	}
}

// CreateOptimistic materializes a placeholder for a just-submitted write and
// appends it to the visible list.
func (e *Engine) CreateOptimistic(p Payload) Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := Entry{
		ID:      "temp-" + uuid.New().String(),
		State:   StatePending,
		Payload: p,
	}
	e.entries = append(e.entries, entry)

	if !e.closed {
		tempID := entry.ID
		e.timers[tempID] = time.AfterFunc(e.timeout, func() {
			e.expire(tempID)
		})
	}
	return entry
}

// Apply feeds one transport event through the engine. A matching placeholder
// is replaced in place by the authoritative record; an event whose id is
// already displayed is a duplicate and a no-op; anything else is a new
// remote record appended to the list. Delete events remove the record.
func (e *Engine) Apply(evt models.Event) {
	id, payload, ok := e.identify(evt.Record)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Type == models.EventDelete {
		e.removeLocked(id)
		return
	}

	// Duplicate delivery: the authoritative id is already displayed.
	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries[i].Record = evt.Record
			return
		}
	}

	// Content-equality match against an outstanding placeholder.
	for i := range e.entries {
		if e.entries[i].State == StatePending && e.entries[i].Payload == payload {
			e.stopTimerLocked(e.entries[i].ID)
			e.entries[i].ID = id
			e.entries[i].State = StateConfirmed
			e.entries[i].Record = evt.Record
			return
		}
	}

	if evt.Type == models.EventInsert {
		e.entries = append(e.entries, Entry{
			ID:      id,
			State:   StateConfirmed,
			Payload: payload,
			Record:  evt.Record,
		})
	}
}

// Fail discards a placeholder after the create call itself errored and
// returns its payload so the caller can restore the composer input.
func (e *Engine) Fail(tempID string) (Payload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.entries {
		if e.entries[i].ID == tempID && e.entries[i].State == StatePending {
			payload := e.entries[i].Payload
			e.stopTimerLocked(tempID)
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return payload, true
		}
	}
	return Payload{}, false
}

// Entries returns a snapshot of the visible list in display order.
func (e *Engine) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Close abandons in-flight reconciliation when the owning screen unmounts.
// No timer fires after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
}

// expire resolves a still-pending placeholder to the terminal unconfirmed
// marker once the timeout elapses.
func (e *Engine) expire(tempID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	delete(e.timers, tempID)

	for i := range e.entries {
		if e.entries[i].ID == tempID && e.entries[i].State == StatePending {
			e.entries[i].State = StateUnconfirmed
			return
		}
	}
}

func (e *Engine) stopTimerLocked(tempID string) {
	if timer, ok := e.timers[tempID]; ok {
		timer.Stop()
		delete(e.timers, tempID)
	}
}

func (e *Engine) removeLocked(id string) {
	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}
