package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type StringArray []string

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringArray) Scan(value any) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, a)
}

func scanBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.New("type assertion to []byte failed")
}

type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	return JSONB(m).Value()
}
func (m *Metadata) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, m)
}

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
	RESERVATION_COMPLETED ReservationStatus = "completed"
)

// ActiveReservationStatuses are the statuses that take part in overlap checks.
var ActiveReservationStatuses = []ReservationStatus{RESERVATION_PENDING, RESERVATION_CONFIRMED}

func (s ReservationStatus) IsActive() bool {
	return s == RESERVATION_PENDING || s == RESERVATION_CONFIRMED
}

func (s ReservationStatus) IsTerminal() bool {
	return s == RESERVATION_CANCELLED || s == RESERVATION_COMPLETED
}

type CalendarEventStatus string

const (
	CALENDAR_EVENT_ACTIVE    CalendarEventStatus = "active"
	CALENDAR_EVENT_CANCELLED CalendarEventStatus = "cancelled"
)

type CalendarEventType string

const (
	CALENDAR_EVENT_BOOKING     CalendarEventType = "booking"
	CALENDAR_EVENT_SYSTEM      CalendarEventType = "system"
	CALENDAR_EVENT_MAINTENANCE CalendarEventType = "maintenance"
	CALENDAR_EVENT_CLOSURE     CalendarEventType = "closure"
)

type UserRole string

const (
	ROLE_STUDENT   UserRole = "student"
	ROLE_PROFESSOR UserRole = "professor"
	ROLE_ADMIN     UserRole = "admin"
)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateBookingRequestBody struct {
	SpaceID            uint      `json:"space_id" binding:"required"`
	StartDatetime      time.Time `json:"start_datetime" binding:"required"`
	EndDatetime        time.Time `json:"end_datetime" binding:"required,gtfield=StartDatetime"`
	Purpose            string    `json:"purpose" binding:"max=500"`
	MaterialsRequested []string  `json:"materials_requested,omitempty" binding:"omitempty,max=20,dive,required"`
	Notes              *string   `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

type UpdateBookingRequestBody struct {
	SpaceID            *uint      `json:"space_id,omitempty"`
	StartDatetime      *time.Time `json:"start_datetime,omitempty"`
	EndDatetime        *time.Time `json:"end_datetime,omitempty"`
	Purpose            *string    `json:"purpose,omitempty" binding:"omitempty,max=500"`
	MaterialsRequested *[]string  `json:"materials_requested,omitempty" binding:"omitempty,max=20"`
	Notes              *string    `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

type SpaceQueryFilters struct {
	Type        string `form:"type"`
	CapacityMin int    `form:"capacity_min" binding:"omitempty,min=0"`
	Materials   string `form:"materials"`
}

type DateQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type CalendarRangeQuery struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"required,datetime=2006-01-02"`
	SpaceID   *uint  `form:"space_id"`
}

type SpaceParams struct {
	SpaceID uint `uri:"space_id" binding:"required"`
}

type BulkAvailabilityRequestBody struct {
	SpaceIDs  []uint   `json:"space_ids" binding:"required,min=1,max=50"`
	Dates     []string `json:"dates" binding:"required,min=1,max=31"`
	StartTime string   `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   string   `json:"end_time" binding:"omitempty,hhmm"`
}

type CreateSystemEventRequestBody struct {
	Title         string            `json:"title" binding:"required,max=200"`
	Description   string            `json:"description,omitempty" binding:"max=2000"`
	SpaceID       *uint             `json:"space_id,omitempty"`
	StartDatetime time.Time         `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time         `json:"end_datetime" binding:"required,gtfield=StartDatetime"`
	EventType     CalendarEventType `json:"event_type,omitempty" binding:"omitempty,oneof=system maintenance closure"`
}

type ChatProposalBody struct {
	SpaceID            uint     `json:"space_id" binding:"required"`
	Date               string   `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime          string   `json:"start_time" binding:"required,hhmm"`
	EndTime            string   `json:"end_time" binding:"required,hhmm"`
	Purpose            string   `json:"purpose,omitempty" binding:"max=500"`
	MaterialsRequested []string `json:"materials_requested,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

type ChatRequestBody struct {
	Message  string            `json:"message" binding:"required,max=4000"`
	Proposal *ChatProposalBody `json:"proposal,omitempty"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Handler func(payload string)
