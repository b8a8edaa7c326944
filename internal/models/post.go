package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ContentStatus is the moderation-visible lifecycle of a piece of content.
type ContentStatus string

const (
	ContentActive    ContentStatus = "active"
	ContentEscalated ContentStatus = "escalated"
	ContentArchived  ContentStatus = "archived"
)

// Category groups posts by support topic. The classifier weighs some
// categories more heavily than others.
type Category string

const (
	CategoryMentalHealth  Category = "mental-health"
	CategoryRelationships Category = "relationships"
	CategorySchool        Category = "school"
	CategoryGeneral       Category = "general"
)

// Post is an anonymous support post. The author is identified only by a
// generated pseudonym; the real identity never reaches staff-facing views.
type Post struct {
	// ID is the unique identifier for the post (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// AuthorPseudonym is the generated display identity of the author.
	AuthorPseudonym string `gorm:"type:text;not null;index" json:"author_pseudonym"`
	// Body is the post text as submitted.
	Body string `gorm:"type:text;not null" json:"body"`
	// Category is the support topic the author filed the post under.
	Category Category `gorm:"type:text;not null;index" json:"category"`
	// Tags are optional author-chosen topic tags.
	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`
	// ReportedCount grows monotonically as users report the post; moderation
	// resets it when clearing the post.
	ReportedCount int `gorm:"not null;default:0" json:"reported_count"`
	// Status is owned by the triage subsystem once the post exists.
	Status ContentStatus `gorm:"type:text;not null;default:active" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates the post ID if the caller did not set one.
func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = ContentActive
	}
	return
}
