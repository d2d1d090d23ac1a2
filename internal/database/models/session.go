package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is the anonymous-first identity record. The id doubles as the
// raw bearer token, so sessions are hard-deleted rather than soft-deleted:
// an expired session must stop resolving immediately.
type Session struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	DisplayName string     `gorm:"not null" json:"display_name"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	TeamID      *uuid.UUID `gorm:"type:uuid;index" json:"team_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastActive  time.Time  `gorm:"index;not null" json:"last_active"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Session) TableName() string {
	return "user_sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.LastActive.IsZero() {
		s.LastActive = time.Now().UTC()
	}
	return nil
}
