package calendar

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/models/scopes"
	"classrent/src/types"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SystemLocation = "Sistema"
	SystemEmail    = "sistema@classrent.edu"
)

// Mirror is the read-side calendar projection of reservations, kept in the database.
type Mirror struct {
	db *gorm.DB
}

var _ booking.CalendarMirror = (*Mirror)(nil)

func NewMirror(db *gorm.DB) *Mirror {
	return &Mirror{db: db}
}

func (m *Mirror) UpsertFromReservation(ctx context.Context, r *models.Reservation, space *models.Space, owner *booking.Recipient) error {
	bookingID, spaceID, ownerID := r.ID, r.SpaceID, r.UserID
	event := models.CalendarEvent{
		BookingID:     &bookingID,
		SpaceID:       &spaceID,
		OwnerID:       &ownerID,
		Title:         space.Name,
		SpaceName:     space.Name,
		Location:      space.Location,
		StartDatetime: r.StartDatetime,
		EndDatetime:   r.EndDatetime,
		Purpose:       r.Purpose,
		Materials:     r.MaterialsRequested,
		EventType:     types.CALENDAR_EVENT_BOOKING,
		Status:        types.CALENDAR_EVENT_ACTIVE,
	}
	if r.Notes != nil {
		event.Notes = *r.Notes
	}
	if owner != nil {
		event.CreatedByEmail = owner.Email
	}
	if !r.Status.IsActive() {
		event.Status = types.CALENDAR_EVENT_CANCELLED
	}

	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "booking_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"space_id", "owner_id", "title", "space_name", "location",
				"start_datetime", "end_datetime", "purpose", "materials", "notes",
				"created_by_email", "status", "updated_at",
			}),
		}).
		Create(&event).
		Error
	if err != nil {
		return fmt.Errorf("upsert calendar event: %w", err)
	}
	return nil
}

// MarkCancelled soft-cancels the event of a reservation. Events are never deleted.
func (m *Mirror) MarkCancelled(ctx context.Context, reservationID uint) error {
	err := m.db.WithContext(ctx).
		Model(&models.CalendarEvent{}).
		Where("booking_id = ?", reservationID).
		Updates(map[string]any{
			"status":     types.CALENDAR_EVENT_CANCELLED,
			"updated_at": time.Now(),
		}).
		Error
	if err != nil {
		return fmt.Errorf("cancel calendar event: %w", err)
	}
	return nil
}

// Query returns active events intersecting [from, to). With a space filter,
// system-wide events are included as well.
func (m *Mirror) Query(ctx context.Context, from, to time.Time, spaceID *uint) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	q := m.db.WithContext(ctx).
		Model(&models.CalendarEvent{}).
		Scopes(scopes.WithActiveEvents, scopes.Overlapping(from, to))
	if spaceID != nil {
		q = q.Where("space_id = ? OR space_id IS NULL", *spaceID)
	}
	if err := q.Order("start_datetime asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	return events, nil
}

type SystemEvent struct {
	Title       string
	Description string
	SpaceID     *uint
	Start       time.Time
	End         time.Time
	EventType   types.CalendarEventType
}

// AddSystemEvent records a maintenance window, closure or similar. A nil SpaceID blocks every space.
func (m *Mirror) AddSystemEvent(ctx context.Context, se SystemEvent) (*models.CalendarEvent, error) {
	if !se.End.After(se.Start) {
		return nil, fmt.Errorf("system event %q: end must be after start", se.Title)
	}
	if se.EventType == "" {
		se.EventType = types.CALENDAR_EVENT_SYSTEM
	}
	event := models.CalendarEvent{
		SpaceID:        se.SpaceID,
		Title:          se.Title,
		Description:    se.Description,
		SpaceName:      se.Title,
		Location:       SystemLocation,
		StartDatetime:  se.Start.UTC(),
		EndDatetime:    se.End.UTC(),
		Purpose:        se.Description,
		Materials:      types.StringArray{},
		CreatedByEmail: SystemEmail,
		EventType:      se.EventType,
		Status:         types.CALENDAR_EVENT_ACTIVE,
	}
	if err := m.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("add system event: %w", err)
	}
	return &event, nil
}
