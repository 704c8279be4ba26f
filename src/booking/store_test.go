package booking

import (
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func newReservation() *models.Reservation {
	return &models.Reservation{
		UserID:             owner,
		SpaceID:            1,
		StartDatetime:      at(9, 0),
		EndDatetime:        at(10, 0),
		Purpose:            "Lezione",
		MaterialsRequested: types.StringArray{},
	}
}

func TestGormStoreInsert(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservations" WHERE space_id = .* status IN .*start_datetime < .* end_datetime >`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	r := newReservation()
	id, err := store.Insert(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, types.RESERVATION_CONFIRMED, r.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertConflict(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), newReservation())
	assert.True(t, errors.Is(err, ErrSlotUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertExclusionViolation(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "reservations"`).
		WillReturnError(&pgconn.PgError{Code: pgExclusionViolation, ConstraintName: "reservations_no_overlap"})
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), newReservation())
	assert.True(t, errors.Is(err, ErrSlotUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertUnknownSpace(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), newReservation())
	assert.True(t, errors.Is(err, ErrSpaceNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertStorageFailure(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), newReservation())
	require.Error(t, err)
	var be *BookingError
	assert.False(t, errors.As(err, &be))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreModifyNoChange(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "space_id", "status"}).
			AddRow(5, owner, 1, string(types.RESERVATION_CANCELLED)))
	mock.ExpectCommit()

	out, err := store.Modify(context.Background(), 5, func(r *models.Reservation) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(5), out.ID)
	assert.Equal(t, types.RESERVATION_CANCELLED, out.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreModifyCancels(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "space_id", "status", "start_datetime", "end_datetime"}).
			AddRow(5, owner, 1, string(types.RESERVATION_CONFIRMED), at(9, 0), at(10, 0)))
	mock.ExpectExec(`UPDATE "reservations" SET .*"status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := store.Modify(context.Background(), 5, func(r *models.Reservation) (bool, error) {
		r.Status = types.RESERVATION_CANCELLED
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_CANCELLED, out.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreModifyMissing(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := store.Modify(context.Background(), 5, func(r *models.Reservation) (bool, error) {
		return true, nil
	})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreModifyRejectsOverlap(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "space_id", "status", "start_datetime", "end_datetime"}).
			AddRow(5, owner, 1, string(types.RESERVATION_CONFIRMED), at(9, 0), at(10, 0)))
	mock.ExpectQuery(`SELECT "id" FROM "spaces" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservations" WHERE .* id <> `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.Modify(context.Background(), 5, func(r *models.Reservation) (bool, error) {
		r.EndDatetime = at(11, 0)
		return true, nil
	})
	assert.True(t, errors.Is(err, ErrSlotUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreListForUser(t *testing.T) {
	gormDB, mock := NewMockDB()
	store := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE "reservations"."user_id" = .* ORDER BY start_datetime desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "space_id"}).
			AddRow(2, owner, 1).
			AddRow(1, owner, 9))
	mock.ExpectQuery(`SELECT \* FROM "spaces" WHERE "spaces"."id" IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Aula 1"))

	list, err := store.ListForUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aula 1", list[0].SpaceName())
	assert.Equal(t, "Spazio eliminato", list[1].SpaceName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
