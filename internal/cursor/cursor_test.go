package cursor

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	c := New([]byte("ab"))

	b, c, err := c.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if b != 'a' {
		t.Errorf("Next() = %q, want 'a'", b)
	}

	b, c, err = c.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if b != 'b' {
		t.Errorf("Next() = %q, want 'b'", b)
	}

	if _, _, err := c.Next(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("Next() past end error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestValueSemantics(t *testing.T) {
	c := New([]byte("hello"))

	// Advancing a copy must not move the original.
	if _, _, err := c.Next(); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if c.Offset() != 0 {
		t.Errorf("Offset() after discarded Next = %d, want 0", c.Offset())
	}

	c2, err := c.Advance(3)
	if err != nil {
		t.Fatalf("Advance(3) error: %v", err)
	}
	if c.Offset() != 0 || c2.Offset() != 3 {
		t.Errorf("offsets = %d, %d, want 0, 3", c.Offset(), c2.Offset())
	}
	if got := string(c2.Rest()); got != "lo" {
		t.Errorf("Rest() = %q, want \"lo\"", got)
	}
}

func TestPeek(t *testing.T) {
	c := New([]byte("xy"))

	if b, ok := c.Peek(); !ok || b != 'x' {
		t.Errorf("Peek() = %q, %v, want 'x', true", b, ok)
	}
	if b, ok := c.PeekAt(1); !ok || b != 'y' {
		t.Errorf("PeekAt(1) = %q, %v, want 'y', true", b, ok)
	}
	if _, ok := c.PeekAt(2); ok {
		t.Error("PeekAt(2) = ok, want out of range")
	}
	// Peek must not consume.
	if c.Offset() != 0 {
		t.Errorf("Offset() after Peek = %d, want 0", c.Offset())
	}
}

func TestTake(t *testing.T) {
	c := New([]byte("abcd"))

	got, c, err := c.Take(3)
	if err != nil {
		t.Fatalf("Take(3) error: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Take(3) = %q, want \"abc\"", got)
	}
	if _, _, err := c.Take(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("Take(2) with 1 byte left error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestHasPrefix(t *testing.T) {
	c := New([]byte("_ZN3foo"))

	if !c.HasPrefix("_Z") {
		t.Error("HasPrefix(\"_Z\") = false, want true")
	}
	c2, _ := c.Advance(2)
	if c2.HasPrefix("_Z") {
		t.Error("HasPrefix(\"_Z\") after Advance = true, want false")
	}
	if !c2.HasPrefix("N3") {
		t.Error("HasPrefix(\"N3\") = false, want true")
	}
}

func TestEmpty(t *testing.T) {
	c := New(nil)
	if !c.Empty() {
		t.Error("Empty() = false for nil input")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}
