package models

import "time"

// ModerationActionType enumerates what a staff member did to a content item.
type ModerationActionType string

const (
	ActionApproved  ModerationActionType = "approved"
	ActionRemoved   ModerationActionType = "removed"
	ActionEscalated ModerationActionType = "escalated"
	ActionAssigned  ModerationActionType = "assigned"
	ActionResolved  ModerationActionType = "resolved"
	ActionReopened  ModerationActionType = "reopened"
)

// ModerationAction is an append-only audit record. Rows are written once and
// never updated; history is reconstructed by reading them in order.
type ModerationAction struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	ContentID string               `gorm:"type:uuid;not null;index" json:"content_id"`
	Action    ModerationActionType `gorm:"type:text;not null" json:"action"`
	ActorID   string               `gorm:"type:text;not null" json:"actor_id"`
	CreatedAt time.Time            `json:"created_at"`
}
