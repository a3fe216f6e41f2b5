package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registration status values.
const (
	RegistrationStatusConfirmed = "confirmed"
	RegistrationStatusCancelled = "cancelled"
)

// Registration is an attendee registration for a workshop.
type Registration struct {
	ID         uuid.UUID  `json:"id"`
	WorkshopID uuid.UUID  `json:"workshop_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"` // nil for anonymous registrations
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// FullName joins first and last name.
func (r *Registration) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
