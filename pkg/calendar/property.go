package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/almanak/almanak/pkg/event"
)

// Property enumerates the mutable fields of an event.
type Property int

const (
	PropertySubject Property = iota
	PropertyDescription
	PropertyLocation
	PropertyStatus
	PropertyStart
	PropertyEnd
)

// ParseProperty maps the command-layer property names onto the enum.
func ParseProperty(name string) (Property, error) {
	switch strings.ToLower(name) {
	case "subject":
		return PropertySubject, nil
	case "description":
		return PropertyDescription, nil
	case "location":
		return PropertyLocation, nil
	case "status":
		return PropertyStatus, nil
	case "startdatetime":
		return PropertyStart, nil
	case "enddatetime":
		return PropertyEnd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidProperty, name)
	}
}

// Value carries the new value for an edit. Text is read for subject,
// description and location, Status for status, Time for the two
// date-time properties. Date and time strings are parsed by the command
// layer before reaching the store.
type Value struct {
	Text   string
	Status event.Status
	Time   time.Time
}

// EditScope selects how far an edit reaches into a series.
type EditScope int

const (
	// EditSingleScope edits exactly one occurrence.
	EditSingleScope EditScope = iota
	// EditFromScope edits the anchor and all later occurrences.
	EditFromScope
	// EditAllScope edits every occurrence of the series.
	EditAllScope
)

// ParseEditScope parses the command-layer scope names.
func ParseEditScope(s string) (EditScope, error) {
	switch strings.ToLower(s) {
	case "single":
		return EditSingleScope, nil
	case "from":
		return EditFromScope, nil
	case "all":
		return EditAllScope, nil
	default:
		return 0, fmt.Errorf("%w: unknown edit scope %q", ErrInvalidInput, s)
	}
}

// RemoveScope selects how far a removal reaches into a series.
type RemoveScope int

const (
	// RemoveThis removes exactly one occurrence.
	RemoveThis RemoveScope = iota
	// RemoveThisAndFuture removes the occurrence and all later ones in
	// the same series.
	RemoveThisAndFuture
	// RemoveAll removes every occurrence of the series.
	RemoveAll
)

// ParseRemoveScope parses the command-layer scope names.
func ParseRemoveScope(s string) (RemoveScope, error) {
	switch strings.ToUpper(s) {
	case "THIS":
		return RemoveThis, nil
	case "THIS_AND_FUTURE":
		return RemoveThisAndFuture, nil
	case "ALL":
		return RemoveAll, nil
	default:
		return 0, fmt.Errorf("%w: unknown remove scope %q", ErrInvalidInput, s)
	}
}
