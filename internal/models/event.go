package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model

	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	EventType   string `gorm:"size:50;not null"` // "tavern", "adventure", "ceremony", etc.
	Location    string `gorm:"size:100;not null"`
	// Optional in-world map position, stored as {"x": ..., "y": ...}
	MapCoordinates  datatypes.JSON
	StartTime       time.Time      `gorm:"not null;index"`
	EndTime         *time.Time
	MaxParticipants *int
	IsPublic        bool  `gorm:"not null"`
	CreatorID       uint  `gorm:"not null;index"`
	SeriesID        *uint `gorm:"index"`

	// Relationships
	Creator      User               `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Series       *EventSeries       `gorm:"foreignKey:SeriesID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Participants []EventParticipant `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments     []Comment          `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
