package utils

import (
	"classrent/src/booking"
	"classrent/src/config"
	"classrent/src/models"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const privatePurposeLength = 50

// ErrorStatus maps a booking error kind to its HTTP status.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSpaceNotFound), errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrConstraintViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithBookingError writes err as a JSON body. Storage failures are logged and hidden.
func AbortWithBookingError(ctx *gin.Context, err error) {
	status := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error processing %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		ctx.AbortWithStatusJSON(status, gin.H{"error": "something went wrong"})
		return
	}
	body := gin.H{"error": err.Error()}
	if reason := booking.ReasonOf(err); reason != "" {
		body["reason"] = reason
	}
	ctx.AbortWithStatusJSON(status, body)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtfield":
		return fmt.Sprintf("must be after %s", strings.ToLower(fe.Param()))
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	case "hhmm":
		return "must be a HH:MM clock time"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

// BindingErrors turns request binding failures into per-field messages.
func BindingErrors(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gin.H{"error": err.Error()}
	}
	fields := gin.H{}
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return gin.H{"error": "invalid request", "fields": fields}
}

// HHMM is the "hhmm" binding rule: a zero-padded 24h clock time.
var HHMM validator.Func = func(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if len(v) != len(config.CLOCK_FORMAT) {
		return false
	}
	_, err := time.Parse(config.CLOCK_FORMAT, v)
	return err == nil
}

// ParseDay reads a YYYY-MM-DD date as local midnight in loc.
func ParseDay(v string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(config.DATE_FORMAT, v, loc)
}

// Truncate cuts s to n runes and marks the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// CalendarEntry is the shared calendar view of one event.
type CalendarEntry struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	BookingID          *uint     `json:"booking_id"`
	SpaceID            *uint     `json:"space_id"`
	SpaceName          string    `json:"space_name"`
	SpaceLocation      string    `json:"space_location"`
	UserID             *uint     `json:"user_id"`
	CreatedBy          string    `json:"created_by"`
	StartDatetime      time.Time `json:"start_datetime"`
	EndDatetime        time.Time `json:"end_datetime"`
	Purpose            string    `json:"purpose"`
	MaterialsRequested []string  `json:"materials_requested"`
	Notes              string    `json:"notes"`
	EventType          string    `json:"event_type"`
	IsOwnBooking       bool      `json:"is_own_booking"`
}

// CalendarView projects an event for viewer. Other users' bookings lose their notes
// and have the purpose shortened.
func CalendarView(e *models.CalendarEvent, viewer uint) CalendarEntry {
	own := e.OwnerID != nil && *e.OwnerID == viewer
	entry := CalendarEntry{
		ID:                 e.ID.String(),
		Title:              e.Title,
		BookingID:          e.BookingID,
		SpaceID:            e.SpaceID,
		SpaceName:          e.SpaceName,
		SpaceLocation:      e.Location,
		UserID:             e.OwnerID,
		CreatedBy:          e.CreatedByEmail,
		StartDatetime:      e.StartDatetime,
		EndDatetime:        e.EndDatetime,
		Purpose:            e.Purpose,
		MaterialsRequested: []string(e.Materials),
		Notes:              e.Notes,
		EventType:          string(e.EventType),
		IsOwnBooking:       own,
	}
	if entry.MaterialsRequested == nil {
		entry.MaterialsRequested = []string{}
	}
	if !own && e.BookingID != nil {
		entry.Notes = ""
		entry.CreatedBy = ""
		entry.Purpose = Truncate(entry.Purpose, privatePurposeLength)
	}
	return entry
}
