// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the detection loop to distinguish between different
// failure scenarios.
package repository

import "errors"

// ErrSpotNotFound is returned when no spot carries the requested label.
// Handlers translate this into an HTTP 404 response; the detection loop
// logs it and moves on to the next spot.
var ErrSpotNotFound = errors.New("spot not found")

// ErrBookingNotFound is returned when a booking id or reference does not
// exist or is no longer active.
var ErrBookingNotFound = errors.New("booking not found")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as booking a spot that is not available.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
