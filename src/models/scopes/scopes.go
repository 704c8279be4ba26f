package scopes

import (
	"classrent/src/types"
	"time"

	"gorm.io/gorm"
)

func WithActiveStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status IN (?)", types.ActiveReservationStatuses)
}

func WithActiveEvents(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", types.CALENDAR_EVENT_ACTIVE)
}

func ForSpace(spaceID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("space_id = ?", spaceID)
	}
}

// Overlapping keeps rows whose [start_datetime, end_datetime) intersects [start, end).
func Overlapping(start, end time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("start_datetime < ? AND end_datetime > ?", end, start)
	}
}

func ExcludingID(id *uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id == nil {
			return db
		}
		return db.Where("id <> ?", *id)
	}
}

func ActiveSpaces(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
