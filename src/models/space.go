package models

import (
	"classrent/src/types"
	"time"
)

const (
	DefaultOpeningTime = "08:00"
	DefaultClosingTime = "20:00"
)

// AvailableHours is a daily window expressed as zero-padded HH:MM clock times.
type AvailableHours struct {
	StartTime string `gorm:"column:available_start" json:"start_time,omitempty"`
	EndTime   string `gorm:"column:available_end" json:"end_time,omitempty"`
}

func (h AvailableHours) IsSet() bool {
	return h.StartTime != "" && h.EndTime != ""
}

type Space struct {
	ID                 uint              `gorm:"primarykey" json:"id"`
	Name               string            `gorm:"not null" json:"name"`
	Type               string            `gorm:"index" json:"type,omitempty"`
	Capacity           int               `json:"capacity"`
	Location           string            `json:"location,omitempty"`
	Description        string            `json:"description,omitempty"`
	Materials          types.StringArray `gorm:"type:jsonb" json:"materials"`
	AvailableHours     AvailableHours    `gorm:"embedded" json:"available_hours"`
	MaxDuration        *int              `json:"max_duration,omitempty"`
	AdvanceBookingDays int               `gorm:"default:0" json:"advance_booking_days"`
	IsActive           bool              `gorm:"default:true;index" json:"is_active"`

	types.Timestamps
}

// OpeningHours returns the configured window or the default 08:00-20:00 one.
func (s *Space) OpeningHours() AvailableHours {
	if s.AvailableHours.IsSet() {
		return s.AvailableHours
	}
	return AvailableHours{StartTime: DefaultOpeningTime, EndTime: DefaultClosingTime}
}

// MaxDurationLimit is zero when the space has no per-space cap.
func (s *Space) MaxDurationLimit() time.Duration {
	if s.MaxDuration == nil || *s.MaxDuration <= 0 {
		return 0
	}
	return time.Duration(*s.MaxDuration) * time.Minute
}
