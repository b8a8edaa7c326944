package synchub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"peerhaven/backend/internal/config"
	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// RedisTransport implements Transport on Redis Pub/Sub. A single goroutine
// pattern-subscribes to every triage key and dispatches to local handlers, so
// events for the same key reach handlers in publish order. On disconnect it
// resubscribes with bounded backoff and then runs the registered reconnect
// hooks so consumers can catch up on whatever was missed.
type RedisTransport struct {
	rdb    *redis.Client
	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.RWMutex
	nextID         uint64
	subs           map[string]map[uint64]EventHandler
	reconnectHooks []func()
}

// NewRedisTransport creates a transport over the given redis client. Call Run
// to start the listener.
func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisTransport{
		rdb:    rdb,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]map[uint64]EventHandler),
	}
}

// Subscribe registers a handler for one channel key.
func (t *RedisTransport) Subscribe(channel string, fn EventHandler) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	if t.subs[channel] == nil {
		t.subs[channel] = make(map[uint64]EventHandler)
	}
	t.subs[channel][id] = fn

	return &Handle{
		channel: channel,
		cancel: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs[channel], id)
			if len(t.subs[channel]) == 0 {
				delete(t.subs, channel)
			}
		},
	}
}

// Publish pushes an event under the triage key prefix.
func (t *RedisTransport) Publish(evt models.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return t.rdb.Publish(t.ctx, storage.EventKeyPrefix+evt.Channel, string(payload)).Err()
}

// OnReconnect registers a catch-up hook.
func (t *RedisTransport) OnReconnect(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reconnectHooks = append(t.reconnectHooks, fn)
}

// Run starts the listener goroutine. It keeps the pattern subscription alive
// until Close, resubscribing with exponential backoff after drops.
func (t *RedisTransport) Run() {
	go func() {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = config.ResubscribeBaseDelay
		bo.MaxInterval = config.ResubscribeMaxDelay
		bo.MaxElapsedTime = 0 // retry forever; a dead transport is worse than a slow one

		reconnected := false
		for {
			select {
			case <-t.ctx.Done():
				return
			default:
			}

			pubsub := t.rdb.PSubscribe(t.ctx, storage.EventKeyPrefix+"*")
			if _, err := pubsub.Receive(t.ctx); err != nil {
				pubsub.Close()
				log.Printf("ERROR: Sync transport subscribe failed: %v", err)
				if !t.sleep(bo.NextBackOff()) {
					return
				}
				continue
			}

			bo.Reset()
			if reconnected {
				log.Println("INFO: Sync transport resubscribed, running catch-up hooks.")
				t.runReconnectHooks()
			}
			reconnected = true

			for msg := range pubsub.Channel() {
				var evt models.Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("ERROR: Unmarshalling transport event: %v", err)
					continue
				}
				t.dispatch(evt)
			}
			pubsub.Close()

			// channel closed: the connection dropped
			if !t.sleep(bo.NextBackOff()) {
				return
			}
		}
	}()
}

// Close stops the listener. Outstanding handles become inert.
func (t *RedisTransport) Close() {
	t.cancel()
}

func (t *RedisTransport) sleep(d time.Duration) bool {
	select {
	case <-t.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (t *RedisTransport) dispatch(evt models.Event) {
	t.mu.RLock()
	handlers := make([]EventHandler, 0, len(t.subs[evt.Channel]))
	for _, fn := range t.subs[evt.Channel] {
		handlers = append(handlers, fn)
	}
	t.mu.RUnlock()

	for _, fn := range handlers {
		fn(evt)
	}
}

func (t *RedisTransport) runReconnectHooks() {
	t.mu.RLock()
	hooks := make([]func(), len(t.reconnectHooks))
	copy(hooks, t.reconnectHooks)
	t.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}
