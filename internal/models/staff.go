package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// StaffRole controls what triage operations a staff member may perform.
type StaffRole string

const (
	RoleModerator StaffRole = "moderator"
	RoleCounselor StaffRole = "counselor"
	RoleExecutive StaffRole = "executive"
	RoleAdmin     StaffRole = "admin"
)

// CanOverride reports whether the role may resolve or reopen escalations it
// is not assigned to.
func (r StaffRole) CanOverride() bool {
	return r == RoleAdmin || r == RoleExecutive
}

// StaffUser is a human responder: moderator, counselor or executive.
type StaffUser struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	DisplayName string         `gorm:"type:text;not null" json:"display_name"`
	Role        StaffRole      `gorm:"type:text;not null" json:"role"`
	Skills      pq.StringArray `gorm:"type:text[]" json:"skills"`
	// TelegramChatID receives on-call alerts for critical escalations.
	TelegramChatID int64 `json:"telegram_chat_id"`
	OnCall         bool  `gorm:"not null;default:false" json:"on_call"`
}

func (u *StaffUser) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
