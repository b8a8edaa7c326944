package synchub

import (
	"encoding/json"
	"testing"

	"peerhaven/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestHandle_UnsubscribeIsIdempotent(t *testing.T) {
	calls := 0
	h := NewHandle("escalations", func() { calls++ })

	h.Unsubscribe()
	h.Unsubscribe()
	h.Unsubscribe()

	assert.Equal(t, 1, calls)
	assert.Equal(t, "escalations", h.Channel())
}

func TestRedisTransport_DispatchRoutesPerChannel(t *testing.T) {
	tr := NewRedisTransport(nil)

	var gotA, gotB []models.Event
	tr.Subscribe("post:1", func(evt models.Event) { gotA = append(gotA, evt) })
	tr.Subscribe("post:2", func(evt models.Event) { gotB = append(gotB, evt) })

	record, _ := json.Marshal(map[string]string{"id": "r1"})
	tr.dispatch(models.Event{Type: models.EventInsert, Channel: "post:1", Record: record})
	tr.dispatch(models.Event{Type: models.EventUpdate, Channel: "post:1", Record: record})
	tr.dispatch(models.Event{Type: models.EventInsert, Channel: "post:2", Record: record})

	assert.Len(t, gotA, 2)
	// per-key ordering follows dispatch order
	assert.Equal(t, models.EventInsert, gotA[0].Type)
	assert.Equal(t, models.EventUpdate, gotA[1].Type)
	assert.Len(t, gotB, 1)
}

func TestRedisTransport_UnsubscribedHandlerStops(t *testing.T) {
	tr := NewRedisTransport(nil)

	count := 0
	handle := tr.Subscribe("escalations", func(evt models.Event) { count++ })

	tr.dispatch(models.Event{Type: models.EventInsert, Channel: "escalations"})
	handle.Unsubscribe()
	tr.dispatch(models.Event{Type: models.EventInsert, Channel: "escalations"})

	assert.Equal(t, 1, count)
}

func TestRedisTransport_ReconnectHooksRun(t *testing.T) {
	tr := NewRedisTransport(nil)

	ran := 0
	tr.OnReconnect(func() { ran++ })
	tr.OnReconnect(func() { ran++ })

	tr.runReconnectHooks()
	assert.Equal(t, 2, ran)
}
