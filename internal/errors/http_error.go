package errors

import (
	"errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusCode maps a domain error to the HTTP status handlers should answer
// with. Unknown errors map to 500 and their detail stays in the server log.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case errors.Is(err, ErrSpaceAlreadyBooked), errors.Is(err, ErrOwnerAlreadyBooked):
		return http.StatusConflict
	case errors.Is(err, ErrVehicleNotApproved), errors.Is(err, ErrSpaceNotBookable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// UserMessage is the body sent to the client. Validation failures keep their
// specific message; anything unexpected collapses to a generic one.
func UserMessage(err error) string {
	if StatusCode(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
