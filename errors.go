package magellan

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoRow is the error returned by ExactlyOneEntity when there are no rows to map
//
// Use an ErrorTranslator to translate it to your own 'not found' error
var ErrNoRow = errors.New("no row")

// MappingError is the error returned when a row (or property map) cannot be mapped
// onto a target type
//
// Use errors.As to obtain the failed type and property
type MappingError struct {
	// TypeName is the simple name of the type being mapped to (where known)
	TypeName string
	// Property is the property being written (where the failure was writing a property)
	Property string
	// Detail describes the failure
	Detail string
	// Cause is the underlying error (if any)
	Cause error
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("cannot map")
	if e.TypeName != "" {
		b.WriteString(" to type " + strconv.Quote(e.TypeName))
	}
	if e.Property != "" {
		b.WriteString(" property " + strconv.Quote(e.Property))
	}
	if e.Detail != "" {
		b.WriteString(" - " + e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}

func errUnregisteredType(name string) error {
	return &MappingError{
		TypeName: name,
		Detail:   "type is not registered",
	}
}
