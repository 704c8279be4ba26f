package booking

import (
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreListChangedSince(t *testing.T) {
	store := NewMemoryStore()
	clock := monday
	store.now = func() time.Time { return clock }

	first := newReservation()
	_, err := store.Insert(context.Background(), first)
	require.NoError(t, err)

	clock = monday.Add(time.Hour)
	second := newReservation()
	second.SpaceID = 2
	_, err = store.Insert(context.Background(), second)
	require.NoError(t, err)

	changed, err := store.ListChangedSince(context.Background(), monday.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, second.ID, changed[0].ID)
}

func TestMemoryStoreIgnoresInactiveForOverlap(t *testing.T) {
	store := NewMemoryStore()
	r := newReservation()
	_, err := store.Insert(context.Background(), r)
	require.NoError(t, err)

	_, err = store.Modify(context.Background(), r.ID, func(m *models.Reservation) (bool, error) {
		m.Status = types.RESERVATION_CANCELLED
		return true, nil
	})
	require.NoError(t, err)

	free, err := IsAvailable(context.Background(), store, 1, Interval{at(9, 0), at(10, 0)}, nil)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestMemoryStoreModifyAcrossSpaces(t *testing.T) {
	store := NewMemoryStore()
	blocker := newReservation()
	blocker.SpaceID = 2
	_, err := store.Insert(context.Background(), blocker)
	require.NoError(t, err)

	moving := newReservation()
	_, err = store.Insert(context.Background(), moving)
	require.NoError(t, err)

	_, err = store.Modify(context.Background(), moving.ID, func(m *models.Reservation) (bool, error) {
		m.SpaceID = 2
		return true, nil
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	stored, err := store.Get(context.Background(), moving.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.SpaceID)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, newReservation())
	assert.ErrorIs(t, err, context.Canceled)

	all, err := store.ListForUser(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, all)
}
