package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles. A team's creator joins as facilitator, everyone
// arriving through an invite code as member.
const (
	MembershipRoleFacilitator = "facilitator"
	MembershipRoleMember      = "member"
)

type Team struct {
	Base
	Name       string `gorm:"not null" json:"name"`
	InviteCode string `gorm:"uniqueIndex;not null;size:8" json:"invite_code"`

	// Relationships
	Members []TeamMembership `gorm:"foreignKey:TeamID" json:"-"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamMembership links an account to a team. The composite primary key is
// what enforces "at most one membership per (user, team) pair".
type TeamMembership struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TeamID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"team_id"`
	Role     string    `gorm:"not null;default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime;index" json:"joined_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

func (TeamMembership) TableName() string {
	return "team_memberships"
}
