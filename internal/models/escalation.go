package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EscalationLevel is the ordered severity of a detected risk.
type EscalationLevel string

const (
	LevelNone     EscalationLevel = "none"
	LevelLow      EscalationLevel = "low"
	LevelMedium   EscalationLevel = "medium"
	LevelHigh     EscalationLevel = "high"
	LevelCritical EscalationLevel = "critical"
)

// Rank returns the numeric severity used for comparisons and queue ordering.
// Unknown values rank as none.
func (l EscalationLevel) Rank() int {
	switch l {
	case LevelLow:
		return 2
	case LevelMedium:
		return 3
	case LevelHigh:
		return 4
	case LevelCritical:
		return 5
	default:
		return 0
	}
}

// EscalationStatus is the lifecycle state of an escalation record.
type EscalationStatus string

const (
	StatusPending    EscalationStatus = "pending"
	StatusInProgress EscalationStatus = "in-progress"
	StatusResolved   EscalationStatus = "resolved"
)

// ContentKind distinguishes what kind of content an escalation points at.
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindReply   ContentKind = "reply"
	KindMessage ContentKind = "message"
)

// Escalation is the tracked risk-review record attached to a content item
// once it crosses a risk threshold. It is never deleted, only transitioned.
type Escalation struct {
	ID string `gorm:"primaryKey" json:"id"`
	// ContentID references the flagged post, reply or message.
	ContentID   string      `gorm:"type:uuid;not null;uniqueIndex:idx_content_once" json:"content_id"`
	ContentKind ContentKind `gorm:"type:text;not null;uniqueIndex:idx_content_once" json:"content_kind"`
	// Level may be raised by later, stronger signals but is never silently
	// lowered. LevelRank is persisted alongside so the raise can be guarded
	// in SQL and the queue can sort without re-deriving ranks.
	Level     EscalationLevel `gorm:"type:text;not null" json:"level"`
	LevelRank int             `gorm:"not null;index" json:"level_rank"`
	// Reason is the classifier output that triggered the escalation.
	Reason     string           `gorm:"type:text" json:"reason"`
	DetectedAt time.Time        `gorm:"not null" json:"detected_at"`
	Status     EscalationStatus `gorm:"type:text;not null;default:pending" json:"status"`
	// AssignedTo is the staff id working the escalation; nil while pending.
	AssignedTo *string    `gorm:"type:text" json:"assigned_to"`
	ResolvedAt *time.Time `json:"resolved_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Escalation) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	e.LevelRank = e.Level.Rank()
	return
}

// CheckInvariants reports whether the record satisfies the lifecycle
// invariants: resolved implies a resolution time not before detection, and an
// assignee implies the record left pending.
func (e *Escalation) CheckInvariants() bool {
	if e.Status == StatusResolved {
		if e.ResolvedAt == nil || e.ResolvedAt.Before(e.DetectedAt) {
			return false
		}
	}
	if e.AssignedTo != nil && e.Status == StatusPending {
		return false
	}
	return true
}
