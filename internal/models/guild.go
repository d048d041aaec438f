package models

import "gorm.io/gorm"

type Guild struct {
	gorm.Model

	Name        string `gorm:"size:64;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Faction     string `gorm:"size:20"`
	Emblem      string `gorm:"size:255"`

	// Relationships
	Memberships []GuildMembership `gorm:"foreignKey:GuildID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
