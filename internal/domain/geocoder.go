package domain

import (
	"context"
	"errors"
	"fmt"
)

// Geocoder looks up structured addresses. Implementations return a nil
// address with a nil error when the provider has no match.
type Geocoder interface {
	// Reverse converts coordinates to the best matching address.
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)

	// Search resolves free text to the first matching address.
	Search(ctx context.Context, text string) (*Address, error)
}

// ErrMissingUser is returned when a registration number does not resolve to
// a user. There is nothing to index, so it is fatal for the run.
var ErrMissingUser = errors.New("user not found")

// ErrNoEvents is returned when the user has no indexable events.
var ErrNoEvents = errors.New("no events to process")

// GeocodeError describes a failed geocoding call: transport failure,
// non-success status, or a payload that could not be decoded.
type GeocodeError struct {
	Op         string // "reverse" or "search"
	Query      string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *GeocodeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocode %s %q: status %d: %v", e.Op, e.Query, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocode %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *GeocodeError) Unwrap() error { return e.Err }
