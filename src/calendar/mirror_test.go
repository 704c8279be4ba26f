package calendar

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func TestUpsertFromReservation(t *testing.T) {
	gormDB, mock := NewMockDB()
	mirror := NewMirror(gormDB)

	mock.ExpectExec(`INSERT INTO "calendar_events" .* ON CONFLICT \("booking_id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notes := "portare il proiettore"
	r := &models.Reservation{
		ID: 4, UserID: 10, SpaceID: 1,
		StartDatetime: day(9, 0), EndDatetime: day(10, 0),
		Purpose: "Lezione", Notes: &notes, Status: types.RESERVATION_CONFIRMED,
	}
	err := mirror.UpsertFromReservation(context.Background(), r, &models.Space{ID: 1, Name: "Aula 1", Location: "Piano 1"}, &booking.Recipient{Email: "prof@example.com"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCancelled(t *testing.T) {
	gormDB, mock := NewMockDB()
	mirror := NewMirror(gormDB)

	mock.ExpectExec(`UPDATE "calendar_events" SET "status"=\$1,"updated_at"=\$2 WHERE booking_id = \$3`).
		WithArgs(types.CALENDAR_EVENT_CANCELLED, sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, mirror.MarkCancelled(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryIncludesSystemWideEvents(t *testing.T) {
	gormDB, mock := NewMockDB()
	mirror := NewMirror(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "calendar_events" WHERE \(space_id = .* OR space_id IS NULL\) AND status = .*start_datetime < `).
		WillReturnRows(sqlmock.NewRows([]string{"title", "start_datetime", "end_datetime", "space_id"}).
			AddRow("Lezione", day(9, 0), day(10, 0), 1).
			AddRow("Manutenzione", day(12, 0), day(14, 0), nil))

	spaceID := uint(1)
	events, err := mirror.Query(context.Background(), day(0, 0), day(23, 0), &spaceID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].IsSystemWide())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSystemEvent(t *testing.T) {
	gormDB, mock := NewMockDB()
	mirror := NewMirror(gormDB)

	mock.ExpectExec(`INSERT INTO "calendar_events"`).WillReturnResult(sqlmock.NewResult(0, 1))

	event, err := mirror.AddSystemEvent(context.Background(), SystemEvent{
		Title: "Chiusura", Description: "Festività", Start: day(0, 0), End: day(23, 0),
		EventType: types.CALENDAR_EVENT_CLOSURE,
	})
	require.NoError(t, err)
	assert.True(t, event.IsSystemWide())
	assert.Equal(t, SystemLocation, event.Location)
	assert.Equal(t, types.CALENDAR_EVENT_CLOSURE, event.EventType)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = mirror.AddSystemEvent(context.Background(), SystemEvent{Title: "x", Start: day(10, 0), End: day(9, 0)})
	assert.Error(t, err)
}
