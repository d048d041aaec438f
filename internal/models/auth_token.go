package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TokenPurposeVerification  = "email_verification"
	TokenPurposePasswordReset = "password_reset"
)

// AuthToken is a single-use token mailed to a user for email verification or
// password reset. It is validated against this row and burned on use.
type AuthToken struct {
	gorm.Model

	UserID    uint   `gorm:"not null;index"`
	Token     string `gorm:"size:36;uniqueIndex;not null"`
	Purpose   string `gorm:"size:30;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (t *AuthToken) Usable() bool {
	return t.UsedAt == nil && time.Now().Before(t.ExpiresAt)
}
