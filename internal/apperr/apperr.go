// Package apperr defines the error taxonomy shared by the passerby components.
//
// Callers wrap these sentinels with fmt.Errorf("...: %w", err) and test them
// with errors.Is. Kind, HTTPStatus and Message translate an error into a stable
// label, a status code for the JSON API and the text shown to the user.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoPrayers          = errors.New("no prayer times loaded")
	ErrFetchFailed        = errors.New("failed to fetch prayer times")
	ErrGeolocationDenied  = errors.New("geolocation unavailable")
	ErrLocationUndetected = errors.New("unable to detect location")
	ErrCorruptRecord      = errors.New("corrupt location record")
	ErrNotFound           = errors.New("not found")
	ErrUnknownMethod      = errors.New("unknown calculation method")
	ErrInvalidSchool      = errors.New("invalid school of thought")
	ErrUnknownCity        = errors.New("unknown city")
	ErrInvalidRequest     = errors.New("invalid request")
)

// CityError reports that prayer times could not be loaded for a city the
// user picked.
type CityError struct {
	City string
	Err  error
}

func (e *CityError) Error() string {
	return fmt.Sprintf("Failed to find %s. Try another.", e.City)
}

func (e *CityError) Unwrap() error { return e.Err }

// Kind returns a short machine-readable label for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrNoPrayers):
		return "no_prayers"

	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"

	case errors.Is(err, ErrGeolocationDenied):
		return "geolocation_denied"

	case errors.Is(err, ErrLocationUndetected):
		return "location_undetected"

	case errors.Is(err, ErrCorruptRecord):
		return "corrupt_record"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrUnknownMethod):
		return "unknown_method"

	case errors.Is(err, ErrInvalidSchool):
		return "invalid_school"

	case errors.Is(err, ErrUnknownCity):
		return "unknown_city"

	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

// HTTPStatus maps err to the status code used by the JSON API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrUnknownMethod),
		errors.Is(err, ErrInvalidSchool),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnknownCity):
		return http.StatusNotFound

	case errors.Is(err, ErrNoPrayers),
		errors.Is(err, ErrGeolocationDenied),
		errors.Is(err, ErrLocationUndetected):
		return http.StatusServiceUnavailable

	case errors.Is(err, ErrFetchFailed):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var cityErr *CityError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cityErr):
		return cityErr.Error()
	case errors.Is(err, ErrGeolocationDenied):
		return "Location access must be granted to detect your position."
	case errors.Is(err, ErrLocationUndetected):
		return "Unable to detect your location."
	case errors.Is(err, ErrNoPrayers):
		return "Prayer times are not available yet."
	case errors.Is(err, ErrFetchFailed):
		return "Could not load prayer times. Try again."
	default:
		return err.Error()
	}
}
