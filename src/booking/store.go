package booking

import (
	"classrent/src/models"
	"classrent/src/models/scopes"
	"classrent/src/types"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModifyFunc mutates a locked copy of a reservation. Returning false leaves the row untouched.
type ModifyFunc func(r *models.Reservation) (bool, error)

// ReservationStore persists reservations. Insert and Modify re-check overlap
// atomically per space, so two writers can never both hold the same slot.
type ReservationStore interface {
	FindOverlapping(ctx context.Context, spaceID uint, iv Interval, excluding *uint) ([]models.Reservation, error)
	Insert(ctx context.Context, r *models.Reservation) (uint, error)
	Get(ctx context.Context, id uint) (*models.Reservation, error)
	Modify(ctx context.Context, id uint, fn ModifyFunc) (*models.Reservation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Reservation, error)
	ListChangedSince(ctx context.Context, since time.Time) ([]models.Reservation, error)
}

// exclusion_violation, raised by the reservations_no_overlap constraint
const pgExclusionViolation = "23P01"

type GormStore struct {
	db *gorm.DB
}

var _ ReservationStore = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindOverlapping(ctx context.Context, spaceID uint, iv Interval, excluding *uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Scopes(scopes.ForSpace(spaceID), scopes.WithActiveStatus, scopes.Overlapping(iv.Start, iv.End), scopes.ExcludingID(excluding)).
		Order("start_datetime asc").
		Find(&reservations).
		Error
	if err != nil {
		return nil, fmt.Errorf("find overlapping reservations: %w", err)
	}
	return reservations, nil
}

func (s *GormStore) Insert(ctx context.Context, r *models.Reservation) (uint, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSpace(tx, r.SpaceID); err != nil {
			return err
		}
		if err := ensureFree(tx, r.SpaceID, Interval{Start: r.StartDatetime, End: r.EndDatetime}, nil); err != nil {
			return err
		}
		r.Status = types.RESERVATION_CONFIRMED
		return tx.Create(r).Error
	})
	if err != nil {
		return 0, translateWriteError(err)
	}
	return r.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "reservation %d does not exist", id)
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &r, nil
}

func (s *GormStore) Modify(ctx context.Context, id uint, fn ModifyFunc) (*models.Reservation, error) {
	var out models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Reservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "", "reservation %d does not exist", id)
			}
			return err
		}

		next := current
		changed, err := fn(&next)
		if err != nil {
			return err
		}
		if !changed {
			out = current
			return nil
		}

		if next.Status.IsActive() && scheduleChanged(&current, &next) {
			if err := lockSpace(tx, next.SpaceID); err != nil {
				return err
			}
			if err := ensureFree(tx, next.SpaceID, Interval{Start: next.StartDatetime, End: next.EndDatetime}, &id); err != nil {
				return err
			}
		}

		if next.UpdatedAt.IsZero() || next.UpdatedAt.Equal(current.UpdatedAt) {
			next.UpdatedAt = time.Now()
		}
		if err := tx.Model(&models.Reservation{ID: id}).Updates(map[string]any{
			"space_id":            next.SpaceID,
			"start_datetime":      next.StartDatetime,
			"end_datetime":        next.EndDatetime,
			"purpose":             next.Purpose,
			"status":              next.Status,
			"notes":               next.Notes,
			"materials_requested": next.MaterialsRequested,
			"cancellation_reason": next.CancellationReason,
			"updated_at":          next.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err)
	}
	return &out, nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Space").
		Where(&models.Reservation{UserID: userID}).
		Order("start_datetime desc").
		Find(&reservations).
		Error
	if err != nil {
		return nil, fmt.Errorf("list reservations for user: %w", err)
	}
	return reservations, nil
}

func (s *GormStore) ListChangedSince(ctx context.Context, since time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Where("updated_at >= ?", since).
		Order("updated_at asc").
		Find(&reservations).
		Error
	if err != nil {
		return nil, fmt.Errorf("list changed reservations: %w", err)
	}
	return reservations, nil
}

// lockSpace takes a row lock on the space, serializing writers per space.
func lockSpace(tx *gorm.DB, spaceID uint) error {
	var space models.Space
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Scopes(scopes.ActiveSpaces).
		First(&space, spaceID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrSpaceNotFound, "", "space %d does not exist", spaceID)
	}
	return err
}

func ensureFree(tx *gorm.DB, spaceID uint, iv Interval, excluding *uint) error {
	var conflicts int64
	err := tx.Model(&models.Reservation{}).
		Scopes(scopes.ForSpace(spaceID), scopes.WithActiveStatus, scopes.Overlapping(iv.Start, iv.End), scopes.ExcludingID(excluding)).
		Count(&conflicts).
		Error
	if err != nil {
		return err
	}
	if conflicts > 0 {
		return newError(ErrSlotUnavailable, ReasonOverlap, "the space is already booked in that interval")
	}
	return nil
}

func translateWriteError(err error) error {
	var be *BookingError
	if errors.As(err, &be) {
		return be
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return newError(ErrSlotUnavailable, ReasonOverlap, "the space is already booked in that interval")
	}
	return fmt.Errorf("write reservation: %w", err)
}

func scheduleChanged(before, after *models.Reservation) bool {
	return before.SpaceID != after.SpaceID ||
		!before.StartDatetime.Equal(after.StartDatetime) ||
		!before.EndDatetime.Equal(after.EndDatetime)
}
