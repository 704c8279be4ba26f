package models

import (
	"classrent/src/types"
	"fmt"
	"strings"
)

type User struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Email     string          `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
	Role      types.UserRole  `gorm:"default:'student'" json:"role,omitempty"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	Metadata  *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Reservations []Reservation `gorm:"foreignKey:user_id" json:"reservations,omitempty"`

	types.Timestamps
}

// FullName falls back to the email when no name is on record.
func (u *User) FullName() string {
	name := strings.TrimSpace(fmt.Sprintf("%s %s", u.FirstName, u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}
