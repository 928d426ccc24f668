package itanium

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers distinguish failure modes with errors.Is.
var (
	// ErrUnexpectedEnd indicates the input ran out mid-production.
	ErrUnexpectedEnd = errors.New("itanium: unexpected end of input")

	// ErrUnexpectedToken indicates the input matched no alternative of the
	// expected production.
	ErrUnexpectedToken = errors.New("itanium: unexpected token")

	// ErrInvalidBackref indicates a substitution code referenced an entry
	// that does not exist yet.
	ErrInvalidBackref = errors.New("itanium: invalid back-reference")

	// ErrRecursionLimit indicates the nesting depth guard tripped.
	ErrRecursionLimit = errors.New("itanium: recursion limit exceeded")

	// ErrFormatting indicates the renderer hit an internal inconsistency,
	// such as a substitution cycle.
	ErrFormatting = errors.New("itanium: formatting error")
)

// ParseError reports where in the input a production failed.
type ParseError struct {
	Offset     int    // Byte offset into the mangled name
	Production string // Grammar production being parsed
	Err        error  // Underlying sentinel error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("itanium: parse error in <%s> at offset %d: %v",
		e.Production, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parseErr wraps a sentinel with production and position context.
func parseErr(production string, offset int, err error) error {
	return &ParseError{Offset: offset, Production: production, Err: err}
}
