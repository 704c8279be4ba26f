package booking

import (
	"classrent/src/models"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedSpacePolicyHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cached := models.Space{ID: 1, Name: "Aula 1", IsActive: true, MaxDuration: intPtr(90)}
	payload, err := json.Marshal(&cached)
	require.NoError(t, err)
	mock.ExpectGet(SpacePolicyKey(1)).SetVal(string(payload))

	policy := NewCachedSpacePolicy(&fakePolicy{}, rdb, 0)
	space, err := policy.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aula 1", space.Name)
	assert.Equal(t, 90, *space.MaxDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSpacePolicyMissFillsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := &fakePolicy{spaces: map[uint]*models.Space{2: {ID: 2, Name: "Aula 2", IsActive: true}}}
	payload, err := json.Marshal(source.spaces[2])
	require.NoError(t, err)

	mock.ExpectGet(SpacePolicyKey(2)).RedisNil()
	mock.ExpectSet(SpacePolicyKey(2), string(payload), SpacePolicyTTL).SetVal("OK")

	policy := NewCachedSpacePolicy(source, rdb, SpacePolicyTTL)
	space, err := policy.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Aula 2", space.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSpacePolicyRedisDown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := &fakePolicy{spaces: map[uint]*models.Space{2: {ID: 2, Name: "Aula 2", IsActive: true}}}
	mock.ExpectGet(SpacePolicyKey(2)).SetErr(errors.New("connection refused"))

	policy := NewCachedSpacePolicy(source, rdb, SpacePolicyTTL)
	space, err := policy.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), space.ID)
}

func TestCachedSpacePolicyNotFoundIsNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(SpacePolicyKey(9)).RedisNil()

	policy := NewCachedSpacePolicy(&fakePolicy{}, rdb, SpacePolicyTTL)
	_, err := policy.Get(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrSpaceNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSpacePolicy(t *testing.T) {
	gormDB, mock := NewMockDB()
	policy := NewGormSpacePolicy(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "spaces" WHERE "spaces"."id" = .* is_active = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active", "available_start", "available_end"}).
			AddRow(1, "Aula 1", true, "08:00", "18:00"))
	space, err := policy.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "18:00", space.AvailableHours.EndTime)

	mock.ExpectQuery(`SELECT \* FROM "spaces"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = policy.Get(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrSpaceNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
