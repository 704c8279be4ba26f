package calendar

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/models/scopes"
	"classrent/src/types"
	"context"
	"fmt"
	"time"
)

const popularSpacesLimit = 5

type SpaceUsage struct {
	SpaceID      uint   `json:"space_id"`
	SpaceName    string `json:"space_name"`
	BookingCount int64  `json:"booking_count"`
}

type Stats struct {
	TodayBookings int64        `json:"today_bookings"`
	WeekBookings  int64        `json:"week_bookings"`
	MonthBookings int64        `json:"month_bookings"`
	PopularSpaces []SpaceUsage `json:"popular_spaces"`
	LastUpdated   time.Time    `json:"last_updated"`
}

// Windows returns the current day, ISO week (Monday first) and month around now, in loc.
func Windows(now time.Time, loc *time.Location) (day, week, month booking.Interval) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -offset)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)

	day = booking.Interval{Start: today, End: today.AddDate(0, 0, 1)}
	week = booking.Interval{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
	month = booking.Interval{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}
	return day, week, month
}

func (m *Mirror) countBookings(ctx context.Context, iv booking.Interval) (int64, error) {
	var n int64
	err := m.db.WithContext(ctx).
		Model(&models.CalendarEvent{}).
		Scopes(scopes.WithActiveEvents).
		Where("event_type = ?", types.CALENDAR_EVENT_BOOKING).
		Where("start_datetime >= ? AND start_datetime < ?", iv.Start, iv.End).
		Count(&n).
		Error
	return n, err
}

// Stats counts active bookings starting today, this week and this month, plus the month's busiest spaces.
func (m *Mirror) Stats(ctx context.Context, now time.Time, loc *time.Location) (*Stats, error) {
	day, week, month := Windows(now, loc)
	stats := &Stats{LastUpdated: now, PopularSpaces: []SpaceUsage{}}

	var err error
	if stats.TodayBookings, err = m.countBookings(ctx, day); err != nil {
		return nil, fmt.Errorf("count today's bookings: %w", err)
	}
	if stats.WeekBookings, err = m.countBookings(ctx, week); err != nil {
		return nil, fmt.Errorf("count week bookings: %w", err)
	}
	if stats.MonthBookings, err = m.countBookings(ctx, month); err != nil {
		return nil, fmt.Errorf("count month bookings: %w", err)
	}

	err = m.db.WithContext(ctx).
		Model(&models.CalendarEvent{}).
		Select("space_id, space_name, count(*) AS booking_count").
		Scopes(scopes.WithActiveEvents).
		Where("event_type = ? AND space_id IS NOT NULL", types.CALENDAR_EVENT_BOOKING).
		Where("start_datetime >= ? AND start_datetime < ?", month.Start, month.End).
		Group("space_id, space_name").
		Order("booking_count desc").
		Limit(popularSpacesLimit).
		Scan(&stats.PopularSpaces).
		Error
	if err != nil {
		return nil, fmt.Errorf("rank spaces: %w", err)
	}
	return stats, nil
}
