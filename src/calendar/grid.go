package calendar

import (
	"classrent/src/booking"
	"classrent/src/config"
	"classrent/src/models"
	"context"
	"time"
)

type Slot struct {
	StartTime string                `json:"start_time"`
	EndTime   string                `json:"end_time"`
	Available bool                  `json:"available"`
	Event     *models.CalendarEvent `json:"event"`
}

type DayAvailability struct {
	SpaceID        uint                   `json:"space_id"`
	SpaceName      string                 `json:"space_name"`
	Date           string                 `json:"date"`
	TimeSlots      []Slot                 `json:"time_slots"`
	Events         []models.CalendarEvent `json:"events"`
	AvailableHours models.AvailableHours  `json:"available_hours"`
}

// BuildGrid splits the opening hours of day into hourly slots. A slot is taken
// when an active event intersects it.
func BuildGrid(space *models.Space, day time.Time, events []models.CalendarEvent, loc *time.Location) DayAvailability {
	if loc == nil {
		loc = time.UTC
	}
	hours := space.OpeningHours()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	open, err := booking.ParseClock(hours.StartTime)
	if err != nil {
		open, _ = booking.ParseClock(models.DefaultOpeningTime)
	}
	closing, err := booking.ParseClock(hours.EndTime)
	if err != nil {
		closing, _ = booking.ParseClock(models.DefaultClosingTime)
	}

	out := DayAvailability{
		SpaceID:        space.ID,
		SpaceName:      space.Name,
		Date:           midnight.Format(config.DATE_FORMAT),
		TimeSlots:      []Slot{},
		Events:         events,
		AvailableHours: hours,
	}
	if out.Events == nil {
		out.Events = []models.CalendarEvent{}
	}

	for hour := int(open / time.Hour); hour < int(closing/time.Hour); hour++ {
		slot := booking.Interval{
			Start: midnight.Add(time.Duration(hour) * time.Hour),
			End:   midnight.Add(time.Duration(hour+1) * time.Hour),
		}
		s := Slot{
			StartTime: slot.Start.Format(config.CLOCK_FORMAT),
			EndTime:   slot.End.Format(config.CLOCK_FORMAT),
			Available: true,
		}
		for i := range events {
			if booking.Overlaps(slot, booking.Interval{Start: events[i].StartDatetime, End: events[i].EndDatetime}) {
				s.Available = false
				s.Event = &events[i]
				break
			}
		}
		out.TimeSlots = append(out.TimeSlots, s)
	}
	return out
}

// Availability loads the day's events for the space and builds its hourly grid.
func (m *Mirror) Availability(ctx context.Context, space *models.Space, day time.Time, loc *time.Location) (*DayAvailability, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	events, err := m.Query(ctx, start, start.AddDate(0, 0, 1), &space.ID)
	if err != nil {
		return nil, err
	}
	grid := BuildGrid(space, start, events, loc)
	return &grid, nil
}

// SlotFree reports whether every slot intersecting the HH:MM range [from, to) is available.
func (d *DayAvailability) SlotFree(from, to string) bool {
	for _, s := range d.TimeSlots {
		if s.StartTime < to && from < s.EndTime && !s.Available {
			return false
		}
	}
	return true
}
