package models

import "gorm.io/gorm"

const (
	RSVPAttending = "attending"
	RSVPMaybe     = "maybe"
	RSVPDeclined  = "declined"
)

// EventParticipant links a user to an event and carries the RSVP status.
type EventParticipant struct {
	gorm.Model

	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_event"`
	EventID    uint   `gorm:"not null;uniqueIndex:idx_user_event"`
	RSVPStatus string `gorm:"size:20;not null;default:attending"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func ValidRSVPStatus(status string) bool {
	return status == RSVPAttending || status == RSVPMaybe || status == RSVPDeclined
}
