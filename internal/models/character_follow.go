package models

import "gorm.io/gorm"

// CharacterFollow links a user to a character they follow.
type CharacterFollow struct {
	gorm.Model

	FollowerID  uint `gorm:"not null;uniqueIndex:idx_follower_character"`
	CharacterID uint `gorm:"not null;uniqueIndex:idx_follower_character"`

	// Relationships
	Follower  User      `gorm:"foreignKey:FollowerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Character Character `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
