package domain

import "errors"

var (
	// ErrAlreadyWatched is returned when an owner saves an asteroid twice.
	ErrAlreadyWatched = errors.New("asteroid already in watchlist")
	// ErrNotWatched is returned when removing an asteroid that is not saved.
	ErrNotWatched = errors.New("asteroid not in watchlist")
	// ErrNotFound is returned when NeoWs or the store has no such record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidMessage is returned for chat messages that are empty or too long.
	ErrInvalidMessage = errors.New("invalid chat message")
	// ErrUnauthenticated is returned when a request carries no valid identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidRange is returned for feed date ranges NeoWs would reject.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidQuery is returned for unknown sort fields or orders.
	ErrInvalidQuery = errors.New("invalid query")
)
