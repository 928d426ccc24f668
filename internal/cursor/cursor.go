// Package cursor provides a bounds-checked position-tracked view over a
// mangled name's bytes.
package cursor

import "errors"

// ErrUnexpectedEOF is returned when a read would pass the end of the input.
var ErrUnexpectedEOF = errors.New("cursor: unexpected end of input")

// Cursor is an immutable window into a byte buffer. Operations never copy
// or mutate the buffer; advancing returns a new Cursor value, so a parser
// can backtrack by simply discarding the cursor a failed attempt returned.
type Cursor struct {
	data []byte
	off  int
}

// New creates a Cursor positioned at the start of data.
func New(data []byte) Cursor {
	return Cursor{data: data}
}

// Offset returns the current position relative to the start of the buffer.
func (c Cursor) Offset() int {
	return c.off
}

// Len returns the number of unread bytes.
func (c Cursor) Len() int {
	return len(c.data) - c.off
}

// Empty reports whether any bytes remain.
func (c Cursor) Empty() bool {
	return c.off >= len(c.data)
}

// Rest returns the unread bytes without advancing. The slice aliases the
// underlying buffer.
func (c Cursor) Rest() []byte {
	return c.data[c.off:]
}

// Peek returns the next byte without advancing. ok is false at end of input.
func (c Cursor) Peek() (byte, bool) {
	if c.Empty() {
		return 0, false
	}
	return c.data[c.off], true
}

// PeekAt returns the byte i positions ahead of the cursor.
func (c Cursor) PeekAt(i int) (byte, bool) {
	if i < 0 || c.off+i >= len(c.data) {
		return 0, false
	}
	return c.data[c.off+i], true
}

// Next consumes a single byte.
func (c Cursor) Next() (byte, Cursor, error) {
	if c.Empty() {
		return 0, c, ErrUnexpectedEOF
	}
	return c.data[c.off], Cursor{data: c.data, off: c.off + 1}, nil
}

// Take consumes n bytes and returns them together with the advanced cursor.
// The returned slice aliases the underlying buffer.
func (c Cursor) Take(n int) ([]byte, Cursor, error) {
	if n < 0 || c.off+n > len(c.data) {
		return nil, c, ErrUnexpectedEOF
	}
	return c.data[c.off : c.off+n], Cursor{data: c.data, off: c.off + n}, nil
}

// Advance skips n bytes.
func (c Cursor) Advance(n int) (Cursor, error) {
	_, rest, err := c.Take(n)
	return rest, err
}

// HasPrefix reports whether the unread bytes start with s.
func (c Cursor) HasPrefix(s string) bool {
	if c.Len() < len(s) {
		return false
	}
	return string(c.data[c.off:c.off+len(s)]) == s
}
