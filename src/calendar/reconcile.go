package calendar

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Reconciler replays recently changed reservations onto the mirror, repairing
// events whose best-effort update was lost.
type Reconciler struct {
	store     booking.ReservationStore
	policy    booking.SpacePolicy
	directory booking.Directory
	mirror    booking.CalendarMirror
	now       func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// reconcileOverlap widens each window so changes committed during the previous run are not missed.
const reconcileOverlap = time.Minute

func NewReconciler(store booking.ReservationStore, policy booking.SpacePolicy, directory booking.Directory, mirror booking.CalendarMirror, since time.Time) *Reconciler {
	return &Reconciler{
		store:     store,
		policy:    policy,
		directory: directory,
		mirror:    mirror,
		now:       time.Now,
		lastRun:   since,
	}
}

// Run re-syncs every reservation changed since the previous run and returns how many were applied.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.now()
	changed, err := r.store.ListChangedSince(ctx, r.lastRun.Add(-reconcileOverlap))
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := range changed {
		if r.sync(ctx, &changed[i]) {
			applied++
		}
	}
	r.lastRun = started
	return applied, nil
}

func (r *Reconciler) sync(ctx context.Context, res *models.Reservation) bool {
	if !res.Status.IsActive() {
		if err := r.mirror.MarkCancelled(ctx, res.ID); err != nil {
			log.Printf("[mirror] Error cancelling event for reservation %d: %s\n", res.ID, err.Error())
			return false
		}
		return true
	}
	space, err := r.policy.Get(ctx, res.SpaceID)
	if err != nil {
		log.Printf("[mirror] Skipping reservation %d: %s\n", res.ID, err.Error())
		return false
	}
	var owner *booking.Recipient
	if r.directory != nil {
		if owner, err = r.directory.Lookup(ctx, res.UserID); err != nil {
			log.Printf("[mirror] Error looking up owner of reservation %d: %s\n", res.ID, err.Error())
		}
	}
	if err := r.mirror.UpsertFromReservation(ctx, res, space, owner); err != nil {
		log.Printf("[mirror] Error syncing reservation %d: %s\n", res.ID, err.Error())
		return false
	}
	return true
}

// SyncReservation re-applies the stored state of one reservation onto the mirror.
func (r *Reconciler) SyncReservation(ctx context.Context, id uint) error {
	res, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !r.sync(ctx, res) {
		return fmt.Errorf("reservation %d was not mirrored", id)
	}
	return nil
}

// EventHandler consumes reservation events published by any instance and
// syncs the reservation they name.
func (r *Reconciler) EventHandler(ctx context.Context) types.Handler {
	return func(payload string) {
		var event booking.DomainEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("[mirror] Dropping malformed event: %s\n", err.Error())
			return
		}
		if event.ReservationID == 0 {
			return
		}
		if err := r.SyncReservation(ctx, event.ReservationID); err != nil {
			log.Printf("[mirror] Error applying %s: %s\n", event.Type, err.Error())
		}
	}
}

// Schedule registers Run as a recurring job on the scheduler.
func (r *Reconciler) Schedule(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			n, err := r.Run(context.Background())
			if err != nil {
				log.Printf("[mirror] Error reconciling calendar: %s\n", err.Error())
				return
			}
			log.Printf("[mirror] Reconciled %d reservations\n", n)
		}),
		gocron.WithName("calendar-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
