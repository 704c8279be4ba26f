package booking

import (
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"time"
)

type Recipient struct {
	UserID uint
	Email  string
	Name   string
	Role   types.UserRole
}

// Directory resolves a user id to contact details.
type Directory interface {
	Lookup(ctx context.Context, userID uint) (*Recipient, error)
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, to *Recipient, r *models.Reservation, space *models.Space) error
	BookingUpdated(ctx context.Context, to *Recipient, r *models.Reservation, space *models.Space) error
	BookingCancelled(ctx context.Context, to *Recipient, r *models.Reservation, space *models.Space) error
}

type CalendarMirror interface {
	UpsertFromReservation(ctx context.Context, r *models.Reservation, space *models.Space, owner *Recipient) error
	MarkCancelled(ctx context.Context, reservationID uint) error
}

type EventType string

const (
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationUpdated   EventType = "reservation.updated"
	EventReservationCancelled EventType = "reservation.cancelled"
)

type DomainEvent struct {
	Type          EventType               `json:"type"`
	ReservationID uint                    `json:"reservation_id"`
	SpaceID       uint                    `json:"space_id"`
	UserID        uint                    `json:"user_id"`
	Start         time.Time               `json:"start_datetime"`
	End           time.Time               `json:"end_datetime"`
	Status        types.ReservationStatus `json:"status"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(context.Context, *Recipient, *models.Reservation, *models.Space) error {
	return nil
}
func (noopNotifier) BookingUpdated(context.Context, *Recipient, *models.Reservation, *models.Space) error {
	return nil
}
func (noopNotifier) BookingCancelled(context.Context, *Recipient, *models.Reservation, *models.Space) error {
	return nil
}

type noopMirror struct{}

func (noopMirror) UpsertFromReservation(context.Context, *models.Reservation, *models.Space, *Recipient) error {
	return nil
}
func (noopMirror) MarkCancelled(context.Context, uint) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, DomainEvent) error { return nil }
