package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is a saved message in a 1-on-1 support session. The embedded
// timestamps double as the ordering key for session history.
type ChatMessage struct {
	ID string `gorm:"primaryKey" json:"id"`
	// SessionID is the identifier of the support session the message belongs to.
	SessionID string `gorm:"type:uuid;not null;index:idx_session_msg" json:"session_id"`
	// SenderPseudonym is the pseudonym of the user who sent the message.
	SenderPseudonym string `gorm:"type:text;not null;index:idx_session_msg" json:"sender_pseudonym"`
	// Body is the message text.
	Body string `gorm:"type:text;not null" json:"body"`
	// Kind indicates the kind of message (e.g. "text", "typing", "reaction").
	Kind string `gorm:"type:text;not null;default:text" json:"kind"`
	// ReportedCount and Status make messages first-class content items: they
	// run through the same report and escalation paths as posts and replies.
	ReportedCount int           `gorm:"not null;default:0" json:"reported_count"`
	Status        ContentStatus `gorm:"type:text;not null;default:active" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Kind == "" {
		m.Kind = "text"
	}
	if m.Status == "" {
		m.Status = ContentActive
	}
	return
}
