package booking

import (
	"classrent/src/config"
	"classrent/src/models"
	"context"
	"log"
	"time"
)

const (
	MinDuration = 30 * time.Minute
	MaxDuration = 8 * time.Hour
)

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Candidate is a reservation request that has not been granted yet.
type Candidate struct {
	SpaceID            uint
	Start              time.Time
	End                time.Time
	Purpose            string
	MaterialsRequested []string
	Notes              *string
}

func (c Candidate) Interval() Interval {
	return Interval{Start: c.Start, End: c.End}
}

// ValidateCandidate checks shape and temporal sanity. A start equal to now is accepted.
func ValidateCandidate(c Candidate, now time.Time) error {
	if c.SpaceID == 0 {
		return newError(ErrValidation, ReasonRequired, "space_id is required")
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return newError(ErrValidation, ReasonRequired, "start_datetime and end_datetime are required")
	}
	if !c.End.After(c.Start) {
		return newError(ErrValidation, ReasonEndBeforeStart, "end must be after start")
	}
	if c.Start.Before(now) {
		return newError(ErrValidation, ReasonInPast, "cannot book in the past")
	}
	d := c.End.Sub(c.Start)
	if d < MinDuration {
		return newError(ErrValidation, ReasonTooShort, "minimum duration is %s", MinDuration)
	}
	if d > MaxDuration {
		return newError(ErrValidation, ReasonTooLong, "maximum duration is %s", MaxDuration)
	}
	return nil
}

// CheckConstraints applies the space policy: duration cap, operating hours, advance notice.
// Hours are compared as clock times in loc.
func CheckConstraints(space *models.Space, iv Interval, now time.Time, loc *time.Location) error {
	if limit := space.MaxDurationLimit(); limit > 0 && iv.Duration() > limit {
		return newError(ErrConstraintViolation, ReasonDuration, "maximum duration for %s is %d minutes", space.Name, *space.MaxDuration)
	}

	if space.AvailableHours.IsSet() {
		if err := checkHours(space, iv, loc); err != nil {
			return err
		}
	}

	if space.AdvanceBookingDays > 0 {
		earliest := now.Add(time.Duration(space.AdvanceBookingDays) * 24 * time.Hour)
		if iv.Start.Before(earliest) {
			return newError(ErrConstraintViolation, ReasonAdvanceNotice, "%s must be booked at least %d days in advance", space.Name, space.AdvanceBookingDays)
		}
	}
	return nil
}

// checkHours requires both ends inside [open, close] on the same local day. An
// overnight span is refused even when each endpoint alone would fit the hours.
func checkHours(space *models.Space, iv Interval, loc *time.Location) error {
	open, errOpen := ParseClock(space.AvailableHours.StartTime)
	closing, errClose := ParseClock(space.AvailableHours.EndTime)
	if errOpen != nil || errClose != nil {
		log.Printf("Ignoring malformed available hours on space %d: %q-%q\n", space.ID, space.AvailableHours.StartTime, space.AvailableHours.EndTime)
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	start := iv.Start.In(loc)
	end := iv.End.In(loc)
	outside := newError(ErrConstraintViolation, ReasonHours, "%s is available from %s to %s", space.Name, space.AvailableHours.StartTime, space.AvailableHours.EndTime)

	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		return outside
	}
	if ClockOf(start) < open || ClockOf(end) > closing {
		return outside
	}
	return nil
}

// ParseClock turns a zero-padded HH:MM value into an offset from midnight.
func ParseClock(v string) (time.Duration, error) {
	t, err := time.Parse(config.CLOCK_FORMAT, v)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ClockOf is the HH:MM clock reading of t, as an offset from its own local midnight.
// Seconds are dropped so it compares like the configured hours.
func ClockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// IsAvailable reports whether no active reservation on the space overlaps iv.
func IsAvailable(ctx context.Context, store ReservationStore, spaceID uint, iv Interval, excluding *uint) (bool, error) {
	conflicts, err := store.FindOverlapping(ctx, spaceID, iv, excluding)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}
