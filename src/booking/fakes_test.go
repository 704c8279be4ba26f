package booking

import (
	"classrent/src/models"
	"context"
	"errors"
	"sync"
)

type fakePolicy struct {
	spaces map[uint]*models.Space
}

func (p *fakePolicy) Get(ctx context.Context, spaceID uint) (*models.Space, error) {
	space, ok := p.spaces[spaceID]
	if !ok || !space.IsActive {
		return nil, newError(ErrSpaceNotFound, "", "space %d does not exist", spaceID)
	}
	cp := *space
	return &cp, nil
}

type fakeDirectory struct{}

func (fakeDirectory) Lookup(ctx context.Context, userID uint) (*Recipient, error) {
	return &Recipient{UserID: userID, Email: "user@example.com", Name: "Test User"}, nil
}

type call struct {
	kind          string
	reservationID uint
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	fail  bool
}

func (r *recorder) record(kind string, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind: kind, reservationID: id})
	if r.fail {
		return errors.New("collaborator down")
	}
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		out = append(out, c.kind)
	}
	return out
}

func (r *recorder) BookingConfirmed(ctx context.Context, to *Recipient, res *models.Reservation, space *models.Space) error {
	return r.record("confirmed", res.ID)
}

func (r *recorder) BookingUpdated(ctx context.Context, to *Recipient, res *models.Reservation, space *models.Space) error {
	return r.record("updated", res.ID)
}

func (r *recorder) BookingCancelled(ctx context.Context, to *Recipient, res *models.Reservation, space *models.Space) error {
	return r.record("cancelled", res.ID)
}

func (r *recorder) UpsertFromReservation(ctx context.Context, res *models.Reservation, space *models.Space, owner *Recipient) error {
	return r.record("upsert", res.ID)
}

func (r *recorder) MarkCancelled(ctx context.Context, reservationID uint) error {
	return r.record("mark_cancelled", reservationID)
}

func (r *recorder) Publish(ctx context.Context, event DomainEvent) error {
	return r.record(string(event.Type), event.ReservationID)
}
