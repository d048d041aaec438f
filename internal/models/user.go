package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Username     string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	IsActive     bool   `gorm:"not null"`
	IsVerified   bool   `gorm:"not null"`
	Avatar       string `gorm:"size:255"`

	// Relationships
	Characters    []Character        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	CreatedEvents []Event            `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments      []Comment          `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	RSVPs         []EventParticipant `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Following     []CharacterFollow  `gorm:"foreignKey:FollowerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AuthTokens    []AuthToken        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
