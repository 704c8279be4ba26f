package utils

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/types"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	cases := map[error]int{
		booking.ErrValidation:          http.StatusBadRequest,
		booking.ErrSpaceNotFound:       http.StatusNotFound,
		booking.ErrNotFound:            http.StatusNotFound,
		booking.ErrSlotUnavailable:     http.StatusConflict,
		booking.ErrConstraintViolation: http.StatusUnprocessableEntity,
		booking.ErrForbidden:           http.StatusForbidden,
		errors.New("disk full"):        http.StatusInternalServerError,
	}
	for err, status := range cases {
		wrapped := fmt.Errorf("create: %w", err)
		assert.Equal(t, status, ErrorStatus(wrapped), err.Error())
	}
}

func TestHHMM(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("hhmm", HHMM))
	for _, ok := range []string{"00:00", "08:30", "23:59"} {
		assert.NoError(t, v.Var(ok, "hhmm"), ok)
	}
	for _, bad := range []string{"8:30", "24:00", "12:60", "noon", "08:30:00"} {
		assert.Error(t, v.Var(bad, "hhmm"), bad)
	}
}

func TestBindingErrors(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, v.RegisterValidation("hhmm", HHMM))
	err := v.Struct(&types.ChatProposalBody{Date: "2030-03-05", StartTime: "9", EndTime: "10:00"})
	body := BindingErrors(err)
	fields := body["fields"].(gin.H)
	assert.Equal(t, "is required", fields["SpaceID"])
	assert.Equal(t, "must be a HH:MM clock time", fields["StartTime"])

	assert.Equal(t, "boom", BindingErrors(errors.New("boom"))["error"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "breve", Truncate("breve", 50))
	long := strings.Repeat("à", 60)
	assert.Equal(t, strings.Repeat("à", 50)+"...", Truncate(long, 50))
}

func TestCalendarViewPrivacy(t *testing.T) {
	owner, booked := uint(4), uint(12)
	e := &models.CalendarEvent{
		ID:             uuid.New(),
		BookingID:      &booked,
		OwnerID:        &owner,
		SpaceName:      "Aula Magna",
		StartDatetime:  time.Date(2030, time.March, 5, 9, 0, 0, 0, time.UTC),
		EndDatetime:    time.Date(2030, time.March, 5, 10, 0, 0, 0, time.UTC),
		Purpose:        strings.Repeat("x", 70),
		Notes:          "chiavi in portineria",
		CreatedByEmail: "anna@example.com",
		EventType:      types.CALENDAR_EVENT_BOOKING,
	}

	mine := CalendarView(e, owner)
	assert.True(t, mine.IsOwnBooking)
	assert.Equal(t, "chiavi in portineria", mine.Notes)
	assert.Len(t, mine.Purpose, 70)

	theirs := CalendarView(e, 5)
	assert.False(t, theirs.IsOwnBooking)
	assert.Empty(t, theirs.Notes)
	assert.Empty(t, theirs.CreatedBy)
	assert.Equal(t, strings.Repeat("x", 50)+"...", theirs.Purpose)
	assert.Equal(t, []string{}, theirs.MaterialsRequested)

	system := CalendarView(&models.CalendarEvent{ID: uuid.New(), Title: "Manutenzione", Purpose: strings.Repeat("y", 70)}, 5)
	assert.Len(t, system.Purpose, 70)
}
