package main

import (
	"context"
	"errors"
)

// This file defines the error taxonomy shared by the geocoding chain, the
// forecaster and the HTTP handlers. Sentinels are matched with errors.Is so
// callers can map a failure to the right status code without string checks.

// ErrNoResultsFound is returned when the full geocoding chain (every primary
// candidate plus the fallback provider) yields no match.
var ErrNoResultsFound = errors.New("no results found for the given query")

// ErrUpstreamFailure is returned when a provider answers with a non-success
// status or an unparseable body.
var ErrUpstreamFailure = errors.New("upstream provider failure")

// ErrInvalidInput is returned for empty queries and non-finite coordinates.
var ErrInvalidInput = errors.New("invalid input")

// isTimeout reports whether err is a deadline expiry on an upstream call.
// Timeouts count as provider failures inside the geocoding fallback chain,
// but surface as the operation's own failure when the forecaster hits one.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
