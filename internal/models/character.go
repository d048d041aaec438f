package models

import "gorm.io/gorm"

type Character struct {
	gorm.Model

	Name      string `gorm:"size:64;index;not null"`
	Race      string `gorm:"size:20;not null"`
	Class     string `gorm:"size:20;not null"`
	Level     int    `gorm:"default:1"`
	Faction   string `gorm:"size:20;not null"`
	Backstory string `gorm:"type:text"`
	IsPublic  bool   `gorm:"not null"`
	Portrait  string `gorm:"size:255"`
	UserID    uint   `gorm:"not null;index"`

	// Relationships
	User        User              `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments    []Comment         `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Followers   []CharacterFollow `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Memberships []GuildMembership `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
