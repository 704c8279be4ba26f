package models

import (
	"classrent/src/types"
	"time"
)

type Reservation struct {
	ID                 uint                    `gorm:"primarykey" json:"id"`
	UserID             uint                    `gorm:"index;not null" json:"user_id"`
	SpaceID            uint                    `gorm:"index;not null" json:"space_id"`
	StartDatetime      time.Time               `gorm:"index;not null" json:"start_datetime"`
	EndDatetime        time.Time               `gorm:"not null" json:"end_datetime"`
	Purpose            string                  `json:"purpose"`
	Status             types.ReservationStatus `gorm:"index;default:'pending'" json:"status"`
	Notes              *string                 `json:"notes,omitempty"`
	MaterialsRequested types.StringArray       `gorm:"type:jsonb" json:"materials_requested"`
	CancellationReason string                  `json:"cancellation_reason,omitempty"`

	User  *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Space *Space `gorm:"foreignKey:space_id" json:"space,omitempty"`

	types.Timestamps
}

func (r *Reservation) Duration() time.Duration {
	return r.EndDatetime.Sub(r.StartDatetime)
}

func (r *Reservation) IsOwnedBy(userID uint) bool {
	return r.UserID == userID
}

// SpaceName is the display name of the booked space, or a placeholder once the space is gone.
func (r *Reservation) SpaceName() string {
	if r.Space == nil || r.Space.Name == "" {
		return "Spazio eliminato"
	}
	return r.Space.Name
}
