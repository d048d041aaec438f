package models

import "gorm.io/gorm"

// Comment is attached to exactly one of a character or an event; the comment
// endpoints each populate exactly one of the two foreign keys.
type Comment struct {
	gorm.Model

	Content     string `gorm:"type:text;not null"`
	UserID      uint   `gorm:"not null;index"`
	CharacterID *uint  `gorm:"index"`
	EventID     *uint  `gorm:"index"`

	// Relationships
	User      User       `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Character *Character `gorm:"foreignKey:CharacterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Event     *Event     `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
