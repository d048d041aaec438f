package models

import "gorm.io/gorm"

type EventSeries struct {
	gorm.Model

	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Frequency   string `gorm:"size:20;not null"` // "weekly", "biweekly", "monthly"

	// Relationships
	Events []Event `gorm:"foreignKey:SeriesID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
