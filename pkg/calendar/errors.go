package calendar

import "errors"

var (
	// ErrInvalidInput covers malformed names, timezones and property values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEvent is an exact (subject, start, end) collision.
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrNotFound means no event or calendar matched a lookup.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousMatch means a subject+start lookup matched more than one
	// event even after disambiguating by end time.
	ErrAmbiguousMatch = errors.New("ambiguous event match")
	// ErrInvalidProperty is an unknown mutable property name.
	ErrInvalidProperty = errors.New("invalid property")
)
