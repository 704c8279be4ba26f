package models

import (
	"classrent/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarEvent is the read-side projection of a reservation, or a standalone system event.
type CalendarEvent struct {
	ID             uuid.UUID                 `gorm:"type:uuid;primarykey" json:"id"`
	BookingID      *uint                     `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	SpaceID        *uint                     `gorm:"index" json:"space_id,omitempty"`
	OwnerID        *uint                     `json:"user_id,omitempty"`
	Title          string                    `json:"title"`
	Description    string                    `json:"description,omitempty"`
	SpaceName      string                    `json:"space_name,omitempty"`
	Location       string                    `json:"space_location,omitempty"`
	StartDatetime  time.Time                 `gorm:"index;not null" json:"start_datetime"`
	EndDatetime    time.Time                 `gorm:"not null" json:"end_datetime"`
	Purpose        string                    `json:"purpose,omitempty"`
	Materials      types.StringArray         `gorm:"type:jsonb" json:"materials"`
	Notes          string                    `json:"notes,omitempty"`
	CreatedByEmail string                    `json:"created_by,omitempty"`
	EventType      types.CalendarEventType   `gorm:"default:'booking'" json:"event_type"`
	Status         types.CalendarEventStatus `gorm:"index;default:'active'" json:"status"`

	types.Timestamps
}

func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsSystemWide reports whether the event applies to every space.
func (e *CalendarEvent) IsSystemWide() bool {
	return e.SpaceID == nil
}
