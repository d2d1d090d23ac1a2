package models

// Account roles. Only admins may create teams.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a permanent account. Email is stored lowercased so the unique
// index doubles as the case-insensitive lookup key.
type User struct {
	Base
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Role        string `gorm:"not null;default:'member'" json:"role"`

	// Relationships
	TeamMemberships []TeamMembership `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
