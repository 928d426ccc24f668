package demangle

import (
	"errors"

	"github.com/skdltmxn/cxxfilt-go/internal/itanium"
)

// Sentinel errors, matchable with errors.Is. Parse failures additionally
// wrap a *ParseError carrying the offset and grammar production.
var (
	ErrUnexpectedEnd   = itanium.ErrUnexpectedEnd
	ErrUnexpectedToken = itanium.ErrUnexpectedToken
	ErrInvalidBackref  = itanium.ErrInvalidBackref
	ErrRecursionLimit  = itanium.ErrRecursionLimit
	ErrFormatting      = itanium.ErrFormatting

	// ErrTrailingBytes indicates Parse matched a valid mangled name but
	// input remained. ParseWithTail accepts such input.
	ErrTrailingBytes = errors.New("demangle: trailing bytes after mangled name")
)

// ParseError reports where in the input a production failed.
type ParseError = itanium.ParseError
