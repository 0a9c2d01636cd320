package repository

import (
	"errors"
	"fmt"
	"testing"

	apperr "unipark/internal/errors"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapInsertError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "SpaceDateViolation",
			err:  &pq.Error{Code: "23505", Constraint: constraintSpaceDate},
			want: apperr.ErrSpaceAlreadyBooked,
		},
		{
			name: "OwnerDateViolation",
			err:  &pq.Error{Code: "23505", Constraint: constraintOwnerDate},
			want: apperr.ErrOwnerAlreadyBooked,
		},
		{
			name: "TokenCollisionIsTransient",
			err:  &pq.Error{Code: "23505", Constraint: constraintToken},
			want: apperr.ErrTransient,
		},
		{
			name: "SerializationFailureIsTransient",
			err:  &pq.Error{Code: "40001", Message: "could not serialize access"},
			want: apperr.ErrTransient,
		},
		{
			name: "DeadlockIsTransient",
			err:  &pq.Error{Code: "40P01", Message: "deadlock detected"},
			want: apperr.ErrTransient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapInsertError(tt.err), tt.want)
		})
	}
}

func TestMapInsertErrorWrapsUnknownErrors(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	got := mapInsertError(cause)
	assert.ErrorIs(t, got, cause)
	assert.False(t, errors.Is(got, apperr.ErrTransient))

	// A unique violation on an unrelated constraint is not a booking conflict.
	other := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	got = mapInsertError(other)
	assert.False(t, apperr.IsConflict(got))
}
