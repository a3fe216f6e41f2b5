package registrations

import (
	"errors"
	"strings"
)

var (
	ErrWorkshopNotFound  = errors.New("workshop not found")
	ErrAlreadyRegistered = errors.New("already registered for this workshop")
	ErrCapacityExceeded  = errors.New("workshop is at full capacity")
	ErrNotRegistered     = errors.New("no registration found for this workshop")
	ErrMissingIdentity   = errors.New("a user id or an email is required")
)

// IncompleteError reports contact fields a registration still needs, in the fixed
// order first name, last name, email.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "missing " + strings.Join(e.Missing, ", ")
}
