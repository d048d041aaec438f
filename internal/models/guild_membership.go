package models

import (
	"time"

	"gorm.io/gorm"
)

// GuildMembership links a character to a guild with the rank held there.
type GuildMembership struct {
	gorm.Model

	GuildID     uint      `gorm:"not null;uniqueIndex:idx_guild_character"`
	CharacterID uint      `gorm:"not null;uniqueIndex:idx_guild_character"`
	Rank        string    `gorm:"size:30;not null;default:Member"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`

	// Relationships
	Guild     Guild     `gorm:"foreignKey:GuildID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Character Character `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
