package booking

import (
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"log"
	"sync"
	"time"
)

type Deps struct {
	Store     ReservationStore
	Policy    SpacePolicy
	Directory Directory
	Notifier  Notifier
	Mirror    CalendarMirror
	Publisher Publisher
	Now       func() time.Time
	Location  *time.Location
}

// Arbitrator decides whether a reservation may be granted and owns its lifecycle.
// Post-commit side effects run in the background and never affect the outcome.
type Arbitrator struct {
	store     ReservationStore
	policy    SpacePolicy
	directory Directory
	notifier  Notifier
	mirror    CalendarMirror
	publisher Publisher
	now       func() time.Time
	loc       *time.Location

	wg sync.WaitGroup
}

func NewArbitrator(d Deps) *Arbitrator {
	a := &Arbitrator{
		store:     d.Store,
		policy:    d.Policy,
		directory: d.Directory,
		notifier:  d.Notifier,
		mirror:    d.Mirror,
		publisher: d.Publisher,
		now:       d.Now,
		loc:       d.Location,
	}
	if a.notifier == nil {
		a.notifier = noopNotifier{}
	}
	if a.mirror == nil {
		a.mirror = noopMirror{}
	}
	if a.publisher == nil {
		a.publisher = noopPublisher{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	return a
}

// Patch carries the fields an owner may change. Nil fields are left as they are.
type Patch struct {
	SpaceID            *uint
	Start              *time.Time
	End                *time.Time
	Purpose            *string
	MaterialsRequested *[]string
	Notes              *string
}

func (p Patch) apply(r *models.Reservation) {
	if p.SpaceID != nil {
		r.SpaceID = *p.SpaceID
	}
	if p.Start != nil {
		r.StartDatetime = p.Start.UTC()
	}
	if p.End != nil {
		r.EndDatetime = p.End.UTC()
	}
	if p.Purpose != nil {
		r.Purpose = *p.Purpose
	}
	if p.MaterialsRequested != nil {
		r.MaterialsRequested = types.StringArray(*p.MaterialsRequested)
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
}

func (a *Arbitrator) Create(ctx context.Context, c Candidate, requesterID uint) (*models.Reservation, error) {
	now := a.now()
	if err := ValidateCandidate(c, now); err != nil {
		return nil, err
	}

	space, err := a.policy.Get(ctx, c.SpaceID)
	if err != nil {
		return nil, err
	}

	iv := c.Interval()
	available, err := IsAvailable(ctx, a.store, c.SpaceID, iv, nil)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, newError(ErrSlotUnavailable, ReasonOverlap, "%s is already booked in that interval", space.Name)
	}

	if err := CheckConstraints(space, iv, now, a.loc); err != nil {
		return nil, err
	}

	materials := types.StringArray(c.MaterialsRequested)
	if materials == nil {
		materials = types.StringArray{}
	}
	r := &models.Reservation{
		UserID:             requesterID,
		SpaceID:            c.SpaceID,
		StartDatetime:      c.Start.UTC(),
		EndDatetime:        c.End.UTC(),
		Purpose:            c.Purpose,
		Notes:              c.Notes,
		MaterialsRequested: materials,
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := a.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	r.Space = space

	committed := *r
	a.afterCommit(ctx, func(ctx context.Context) {
		owner := a.lookup(ctx, committed.UserID)
		if err := a.mirror.UpsertFromReservation(ctx, &committed, space, owner); err != nil {
			log.Printf("Error mirroring reservation %d: %s\n", committed.ID, err.Error())
		}
		if owner != nil {
			if err := a.notifier.BookingConfirmed(ctx, owner, &committed, space); err != nil {
				log.Printf("Error sending confirmation for reservation %d: %s\n", committed.ID, err.Error())
			}
		}
		a.publish(ctx, EventReservationConfirmed, &committed)
	})

	return r, nil
}

func (a *Arbitrator) Update(ctx context.Context, id, requesterID uint, patch Patch) (*models.Reservation, error) {
	now := a.now()
	var (
		before      models.Reservation
		space       *models.Space
		significant bool
	)
	updated, err := a.store.Modify(ctx, id, func(r *models.Reservation) (bool, error) {
		if !r.IsOwnedBy(requesterID) {
			return false, newError(ErrForbidden, ReasonNotOwner, "reservation %d belongs to another user", id)
		}
		if r.Status.IsTerminal() {
			return false, newError(ErrForbidden, ReasonTerminal, "reservation %d is %s", id, r.Status)
		}
		if !r.StartDatetime.After(now) {
			return false, newError(ErrForbidden, ReasonStarted, "reservation %d has already started", id)
		}

		before = *r
		patch.apply(r)
		significant = scheduleChanged(&before, r)
		space = nil
		if significant {
			c := Candidate{SpaceID: r.SpaceID, Start: r.StartDatetime, End: r.EndDatetime}
			if err := ValidateCandidate(c, now); err != nil {
				return false, err
			}
			sp, err := a.policy.Get(ctx, r.SpaceID)
			if err != nil {
				return false, err
			}
			if err := CheckConstraints(sp, c.Interval(), now, a.loc); err != nil {
				return false, err
			}
			space = sp
		}
		r.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	committed := *updated
	a.afterCommit(ctx, func(ctx context.Context) {
		if significant {
			if space == nil {
				space = a.spaceFor(ctx, committed.SpaceID)
			}
			owner := a.lookup(ctx, committed.UserID)
			if err := a.mirror.UpsertFromReservation(ctx, &committed, space, owner); err != nil {
				log.Printf("Error mirroring reservation %d: %s\n", committed.ID, err.Error())
			}
			if owner != nil {
				if err := a.notifier.BookingUpdated(ctx, owner, &committed, space); err != nil {
					log.Printf("Error sending update notice for reservation %d: %s\n", committed.ID, err.Error())
				}
			}
		}
		a.publish(ctx, EventReservationUpdated, &committed)
	})

	return updated, nil
}

// Cancel releases a reservation. Cancelling an already cancelled reservation is a no-op.
func (a *Arbitrator) Cancel(ctx context.Context, id, requesterID uint, reason string) (*models.Reservation, error) {
	now := a.now()
	alreadyCancelled := false
	cancelled, err := a.store.Modify(ctx, id, func(r *models.Reservation) (bool, error) {
		if !r.IsOwnedBy(requesterID) {
			return false, newError(ErrForbidden, ReasonNotOwner, "reservation %d belongs to another user", id)
		}
		switch r.Status {
		case types.RESERVATION_CANCELLED:
			alreadyCancelled = true
			return false, nil
		case types.RESERVATION_COMPLETED:
			return false, newError(ErrForbidden, ReasonTerminal, "reservation %d is already completed", id)
		}
		alreadyCancelled = false
		r.Status = types.RESERVATION_CANCELLED
		r.CancellationReason = reason
		r.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyCancelled {
		return cancelled, nil
	}

	committed := *cancelled
	a.afterCommit(ctx, func(ctx context.Context) {
		if err := a.mirror.MarkCancelled(ctx, committed.ID); err != nil {
			log.Printf("Error cancelling mirrored event for reservation %d: %s\n", committed.ID, err.Error())
		}
		if owner := a.lookup(ctx, committed.UserID); owner != nil {
			space := a.spaceFor(ctx, committed.SpaceID)
			if err := a.notifier.BookingCancelled(ctx, owner, &committed, space); err != nil {
				log.Printf("Error sending cancellation for reservation %d: %s\n", committed.ID, err.Error())
			}
		}
		a.publish(ctx, EventReservationCancelled, &committed)
	})

	return cancelled, nil
}

func (a *Arbitrator) Get(ctx context.Context, id, requesterID uint) (*models.Reservation, error) {
	r, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(requesterID) {
		return nil, newError(ErrForbidden, ReasonNotOwner, "reservation %d belongs to another user", id)
	}
	return r, nil
}

// ListForUser returns every reservation of the user, latest start first.
func (a *Arbitrator) ListForUser(ctx context.Context, userID uint) ([]models.Reservation, error) {
	return a.store.ListForUser(ctx, userID)
}

// Wait blocks until in-flight side effects have finished.
func (a *Arbitrator) Wait() {
	a.wg.Wait()
}

func (a *Arbitrator) afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Recovered from panic in booking side effect: %v\n", rec)
			}
		}()
		fn(detached)
	}()
}

func (a *Arbitrator) lookup(ctx context.Context, userID uint) *Recipient {
	if a.directory == nil {
		return nil
	}
	owner, err := a.directory.Lookup(ctx, userID)
	if err != nil {
		log.Printf("Error looking up user %d: %s\n", userID, err.Error())
		return nil
	}
	return owner
}

func (a *Arbitrator) spaceFor(ctx context.Context, spaceID uint) *models.Space {
	space, err := a.policy.Get(ctx, spaceID)
	if err != nil {
		return &models.Space{ID: spaceID, Name: "Spazio eliminato"}
	}
	return space
}

func (a *Arbitrator) publish(ctx context.Context, kind EventType, r *models.Reservation) {
	err := a.publisher.Publish(ctx, DomainEvent{
		Type:          kind,
		ReservationID: r.ID,
		SpaceID:       r.SpaceID,
		UserID:        r.UserID,
		Start:         r.StartDatetime,
		End:           r.EndDatetime,
		Status:        r.Status,
		OccurredAt:    a.now(),
	})
	if err != nil {
		log.Printf("Error publishing %s for reservation %d: %s\n", kind, r.ID, err.Error())
	}
}
