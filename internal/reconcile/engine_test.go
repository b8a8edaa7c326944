package reconcile_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/reconcile"

	"github.com/stretchr/testify/assert"
)

func messageEvent(t *testing.T, eventType models.EventType, msg models.ChatMessage) models.Event {
	t.Helper()
	record, err := json.Marshal(msg)
	assert.NoError(t, err)
	return models.Event{
		Type:    eventType,
		Channel: models.ChannelSession(msg.SessionID),
		Record:  record,
	}
}

func TestCreateOptimistic_ShowsPlaceholderImmediately(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	entry := engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl",
		Body:            "is anyone around?",
		Target:          "session-1",
	})

	assert.True(t, strings.HasPrefix(entry.ID, "temp-"))
	assert.Equal(t, reconcile.StatePending, entry.State)

	entries := engine.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestApply_EchoReplacesPlaceholderInPlace(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	// an earlier confirmed message sits above the placeholder
	engine.Apply(messageEvent(t, models.EventInsert, models.ChatMessage{
		ID: "msg-41", SessionID: "session-1", SenderPseudonym: "kind-fox", Body: "hey",
	}))
	placeholder := engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl",
		Body:            "is anyone around?",
		Target:          "session-1",
	})

	engine.Apply(messageEvent(t, models.EventInsert, models.ChatMessage{
		ID: "msg-42", SessionID: "session-1", SenderPseudonym: "quiet-owl", Body: "is anyone around?",
	}))

	entries := engine.Entries()
	assert.Len(t, entries, 2)
	// same position, now carrying the real id
	assert.Equal(t, "msg-42", entries[1].ID)
	assert.Equal(t, reconcile.StateConfirmed, entries[1].State)

	for _, e := range entries {
		assert.NotEqual(t, placeholder.ID, e.ID)
	}
}

func TestApply_DuplicateDeliveryIsNoOp(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl", Body: "hello", Target: "session-1",
	})

	echo := messageEvent(t, models.EventInsert, models.ChatMessage{
		ID: "msg-7", SessionID: "session-1", SenderPseudonym: "quiet-owl", Body: "hello",
	})
	engine.Apply(echo)
	engine.Apply(echo) // at-least-once transport redelivers

	entries := engine.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "msg-7", entries[0].ID)
}

func TestApply_CreateResponseAndEchoBothArrive(t *testing.T) {
	// The create call's response reconciles the placeholder first; the
	// realtime event for the same record then finds nothing pending.
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl", Body: "hello", Target: "session-1",
	})

	msg := models.ChatMessage{
		ID: "msg-8", SessionID: "session-1", SenderPseudonym: "quiet-owl", Body: "hello",
	}
	engine.Apply(messageEvent(t, models.EventInsert, msg))
	engine.Apply(messageEvent(t, models.EventUpdate, msg))

	entries := engine.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, reconcile.StateConfirmed, entries[0].State)
}

func TestApply_ForeignInsertAppends(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	engine.Apply(messageEvent(t, models.EventInsert, models.ChatMessage{
		ID: "msg-1", SessionID: "session-1", SenderPseudonym: "kind-fox", Body: "welcome",
	}))

	entries := engine.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "msg-1", entries[0].ID)
	assert.Equal(t, reconcile.StateConfirmed, entries[0].State)
}

func TestApply_DeleteRemovesRecord(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	msg := models.ChatMessage{
		ID: "msg-9", SessionID: "session-1", SenderPseudonym: "kind-fox", Body: "oops",
	}
	engine.Apply(messageEvent(t, models.EventInsert, msg))
	engine.Apply(messageEvent(t, models.EventDelete, msg))

	assert.Empty(t, engine.Entries())
}

func TestFail_RestoresPayloadForRetry(t *testing.T) {
	engine := reconcile.NewEngine(time.Second, reconcile.ChatMessageIdentity)
	defer engine.Close()

	entry := engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl", Body: "my draft", Target: "session-1",
	})

	payload, ok := engine.Fail(entry.ID)
	assert.True(t, ok)
	assert.Equal(t, "my draft", payload.Body)
	assert.Empty(t, engine.Entries())

	_, ok = engine.Fail(entry.ID)
	assert.False(t, ok)
}

func TestTimeout_PlaceholderDegradesToUnconfirmed(t *testing.T) {
	engine := reconcile.NewEngine(30*time.Millisecond, reconcile.ChatMessageIdentity)
	defer engine.Close()

	engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl", Body: "lost write", Target: "session-1",
	})

	assert.Eventually(t, func() bool {
		entries := engine.Entries()
		return len(entries) == 1 && entries[0].State == reconcile.StateUnconfirmed
	}, time.Second, 10*time.Millisecond)
}

func TestClose_NoTimerFiresAfterTeardown(t *testing.T) {
	engine := reconcile.NewEngine(20*time.Millisecond, reconcile.ChatMessageIdentity)

	engine.CreateOptimistic(reconcile.Payload{
		AuthorPseudonym: "quiet-owl", Body: "abandoned", Target: "session-1",
	})
	engine.Close()

	time.Sleep(60 * time.Millisecond)
	entries := engine.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, reconcile.StatePending, entries[0].State)
}

func TestReplyIdentity(t *testing.T) {
	record, _ := json.Marshal(models.Reply{
		ID: "reply-1", PostID: "post-1", AuthorPseudonym: "quiet-owl", Body: "hang in there",
	})

	id, payload, ok := reconcile.ReplyIdentity(record)
	assert.True(t, ok)
	assert.Equal(t, "reply-1", id)
	assert.Equal(t, "post-1", payload.Target)

	_, _, ok = reconcile.ReplyIdentity(json.RawMessage(`{`))
	assert.False(t, ok)
}
