package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reply is an anonymous reply under a post. Replies run through the same
// classifier as posts and can carry their own escalation.
type Reply struct {
	ID              string        `gorm:"primaryKey" json:"id"`
	PostID          string        `gorm:"type:uuid;not null;index" json:"post_id"`
	AuthorPseudonym string        `gorm:"type:text;not null" json:"author_pseudonym"`
	Body            string        `gorm:"type:text;not null" json:"body"`
	ReportedCount   int           `gorm:"not null;default:0" json:"reported_count"`
	Status          ContentStatus `gorm:"type:text;not null;default:active" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Reply) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = ContentActive
	}
	return
}
