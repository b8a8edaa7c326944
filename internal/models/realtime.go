package models

import "encoding/json"

// EventType mirrors the transport change kinds.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is the unit the sync transport fans out. Record carries the full
// authoritative row; consumers must tolerate duplicate delivery.
type Event struct {
	Type    EventType       `json:"type"`
	Channel string          `json:"channel"`
	Record  json.RawMessage `json:"record"`
}

// Channel keys. Events for the same key arrive in commit order; ordering
// across keys is not guaranteed.
const ChannelEscalations = "escalations"

func ChannelPost(postID string) string         { return "post:" + postID }
func ChannelSession(sessionID string) string   { return "session:" + sessionID }
func ChannelTyping(sessionID string) string    { return "typing:" + sessionID }
func ChannelReactions(sessionID string) string { return "reactions:" + sessionID }

// SubscribeRequest is what a staff socket sends to follow or drop a channel.
type SubscribeRequest struct {
	Op      string `json:"op"` // "subscribe" | "unsubscribe"
	Channel string `json:"channel"`
}
