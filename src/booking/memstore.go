package booking

import (
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps reservations in process. Writers on the same space are
// serialized by a per-space mutex held across the overlap check and the write.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   uint
	rows  map[uint]models.Reservation
	locks sync.Map
	now   func() time.Time
}

var _ ReservationStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[uint]models.Reservation),
		now:  time.Now,
	}
}

func (s *MemoryStore) spaceLock(spaceID uint) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(spaceID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *MemoryStore) FindOverlapping(ctx context.Context, spaceID uint, iv Interval, excluding *uint) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlapping(spaceID, iv, excluding), nil
}

func (s *MemoryStore) overlapping(spaceID uint, iv Interval, excluding *uint) []models.Reservation {
	var out []models.Reservation
	for id, r := range s.rows {
		if r.SpaceID != spaceID || !r.Status.IsActive() {
			continue
		}
		if excluding != nil && *excluding == id {
			continue
		}
		if Overlaps(iv, Interval{Start: r.StartDatetime, End: r.EndDatetime}) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDatetime.Before(out[j].StartDatetime) })
	return out
}

func (s *MemoryStore) Insert(ctx context.Context, r *models.Reservation) (uint, error) {
	l := s.spaceLock(r.SpaceID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.overlapping(r.SpaceID, Interval{Start: r.StartDatetime, End: r.EndDatetime}, nil)) > 0 {
		return 0, newError(ErrSlotUnavailable, ReasonOverlap, "the space is already booked in that interval")
	}
	s.seq++
	now := s.now()
	r.ID = s.seq
	r.Status = types.RESERVATION_CONFIRMED
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt
	s.rows[r.ID] = *r
	return r.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, newError(ErrNotFound, "", "reservation %d does not exist", id)
	}
	return &r, nil
}

func (s *MemoryStore) Modify(ctx context.Context, id uint, fn ModifyFunc) (*models.Reservation, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	spaces := []uint{current.SpaceID}
	for {
		out, wanted, err := s.modifyLocked(ctx, id, spaces, fn)
		if wanted != nil {
			spaces = wanted
			continue
		}
		return out, err
	}
}

// modifyLocked holds the locks of every space the write touches for the whole
// read-check-write. When the row or the mutation needs a space outside the held
// set it returns the set to retry with.
func (s *MemoryStore) modifyLocked(ctx context.Context, id uint, spaces []uint, fn ModifyFunc) (*models.Reservation, []uint, error) {
	sort.Slice(spaces, func(i, j int) bool { return spaces[i] < spaces[j] })
	for _, spaceID := range spaces {
		l := s.spaceLock(spaceID)
		l.Lock()
		defer l.Unlock()
	}
	holds := func(spaceID uint) bool {
		for _, held := range spaces {
			if held == spaceID {
				return true
			}
		}
		return false
	}

	s.mu.RLock()
	current, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, newError(ErrNotFound, "", "reservation %d does not exist", id)
	}
	if !holds(current.SpaceID) {
		return nil, []uint{current.SpaceID}, nil
	}

	next := current
	changed, err := fn(&next)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		return &current, nil, nil
	}
	if !holds(next.SpaceID) {
		return nil, []uint{current.SpaceID, next.SpaceID}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if next.Status.IsActive() && scheduleChanged(&current, &next) {
		if len(s.overlapping(next.SpaceID, Interval{Start: next.StartDatetime, End: next.EndDatetime}, &id)) > 0 {
			return nil, nil, newError(ErrSlotUnavailable, ReasonOverlap, "the space is already booked in that interval")
		}
	}
	if next.UpdatedAt.IsZero() || next.UpdatedAt.Equal(current.UpdatedAt) {
		next.UpdatedAt = s.now()
	}
	s.rows[id] = next
	return &next, nil, nil
}

func (s *MemoryStore) ListForUser(ctx context.Context, userID uint) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reservation
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDatetime.After(out[j].StartDatetime) })
	return out, nil
}

func (s *MemoryStore) ListChangedSince(ctx context.Context, since time.Time) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reservation
	for _, r := range s.rows {
		if !r.UpdatedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}
