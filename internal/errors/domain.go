package errors

import "errors"

// Typed failures returned by the booking core. Handlers translate them to
// HTTP statuses via StatusCode; callers branch with errors.Is.
var (
	ErrSpaceAlreadyBooked     = errors.New("space already booked for that date")
	ErrOwnerAlreadyBooked     = errors.New("owner already has a booking for that date")
	ErrVehicleNotApproved     = errors.New("vehicle is not approved")
	ErrSpaceNotBookable       = errors.New("space cannot be booked")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
)

// ErrTransient wraps datastore failures worth one retry (deadlock,
// serialization). Permanent persistence failures are returned bare.
var ErrTransient = errors.New("transient datastore failure")

// IsConflict reports whether err is one of the slot-claim conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSpaceAlreadyBooked) || errors.Is(err, ErrOwnerAlreadyBooked)
}
