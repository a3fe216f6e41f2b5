package models

import (
	"time"

	"github.com/google/uuid"
)

// Workshop is a bookable workshop in the catalog.
type Workshop struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Capacity        int        `json:"capacity"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	RegisteredCount int        `json:"registered_count"` // confirmed registrations, derived
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SeatsLeft returns the number of seats still available (never negative).
func (w *Workshop) SeatsLeft() int {
	if left := w.Capacity - w.RegisteredCount; left > 0 {
		return left
	}
	return 0
}

// IsFull reports whether no seats remain.
func (w *Workshop) IsFull() bool {
	return w.RegisteredCount >= w.Capacity
}
