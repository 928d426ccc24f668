package itanium

import (
	"errors"
	"strings"
	"testing"
)

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrUnexpectedEnd},
		{"bare prefix", "_Z", ErrUnexpectedEnd},
		{"not mangled", "hello", ErrUnexpectedToken},
		{"wrong prefix", "ZN3fooE", ErrUnexpectedToken},
		{"backref before any entry", "_ZNS0_1fEv", ErrInvalidBackref},
		{"truncated source name", "_ZN5space3fo", ErrUnexpectedEnd},
		{"leading zero length", "_Z01f", ErrUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Parse([]byte(tt.input), Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestParseErrorDetails(t *testing.T) {
	_, _, _, err := Parse([]byte("_ZN5space3fo"), Options{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Parse error = %T, want *ParseError", err)
	}
	if pe.Production == "" {
		t.Error("ParseError.Production is empty")
	}
	if pe.Offset <= 0 {
		t.Errorf("ParseError.Offset = %d, want > 0", pe.Offset)
	}
	if !strings.Contains(pe.Error(), pe.Production) {
		t.Errorf("Error() = %q, does not mention production %q", pe.Error(), pe.Production)
	}
}

func TestParseRecursionLimit(t *testing.T) {
	deep := "_Z1f" + strings.Repeat("P", 200) + "i"

	if _, _, _, err := Parse([]byte(deep), Options{}); !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("Parse(deep) error = %v, want ErrRecursionLimit", err)
	}

	// A higher limit accepts the same input.
	root, subs, _, err := Parse([]byte(deep), Options{MaxDepth: 300})
	if err != nil {
		t.Fatalf("Parse(deep, MaxDepth 300) error: %v", err)
	}
	out, err := Render(root, subs)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	want := "f(int" + strings.Repeat("*", 200) + ")"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestParseNumberOverflow(t *testing.T) {
	// An array dimension wider than the accepted range must be rejected,
	// not wrapped modulo 2^64 and rendered as a plausible number.
	input := "_Z1fIA20000000000000000000_iEvv"
	if _, _, _, err := Parse([]byte(input), Options{}); !errors.Is(err, ErrUnexpectedToken) {
		t.Errorf("Parse(%q) error = %v, want ErrUnexpectedToken", input, err)
	}

	// In parameter position the oversized array cannot parse, so the
	// encoding degrades to a data name and the bytes stay unconsumed.
	root, subs, rest, err := Parse([]byte("_Z1fA20000000000000000000_i"), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := string(rest.Rest()); got != "A20000000000000000000_i" {
		t.Errorf("tail = %q, want the rejected array type", got)
	}
	out, err := Render(root, subs)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if out != "f" {
		t.Errorf("Render = %q, want \"f\"", out)
	}
}

func TestParseLeavesTail(t *testing.T) {
	root, subs, rest, err := Parse([]byte("_Z3foov@plt"), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := string(rest.Rest()); got != "@plt" {
		t.Errorf("tail = %q, want \"@plt\"", got)
	}
	out, err := Render(root, subs)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if out != "foo()" {
		t.Errorf("Render = %q, want \"foo()\"", out)
	}
}

func TestParseDataName(t *testing.T) {
	// No parseable parameter list means the encoding is a data name.
	root, subs, rest, err := Parse([]byte("_ZN5space1xE"), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !rest.Empty() {
		t.Errorf("tail = %q, want empty", rest.Rest())
	}
	out, err := Render(root, subs)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if out != "space::x" {
		t.Errorf("Render = %q, want \"space::x\"", out)
	}
}

// Truncating a valid name anywhere must fail cleanly or yield a shorter
// valid parse; it must never panic.
func TestParseTruncationsDoNotPanic(t *testing.T) {
	inputs := []string{
		"_ZNSt6vectorIiSaIiEE9push_backERKi",
		"_ZZ4mainENKUlvE_clEv",
		"_ZTv0_n24_N1C1fEv",
		"_Z1fIXplLi1ELi2EEEvv",
	}
	for _, input := range inputs {
		for i := 0; i <= len(input); i++ {
			root, subs, _, err := Parse([]byte(input[:i]), Options{})
			if err != nil {
				continue
			}
			if _, err := Render(root, subs); err != nil {
				t.Errorf("Parse(%q) ok but Render failed: %v", input[:i], err)
			}
		}
	}
}

func TestSubstitutionTable(t *testing.T) {
	var subs Substitutions

	if _, err := subs.Get(0); !errors.Is(err, ErrInvalidBackref) {
		t.Errorf("Get(0) on empty table error = %v, want ErrInvalidBackref", err)
	}

	a := &Name{Text: "a"}
	b := &Name{Text: "b"}
	if idx := subs.Insert(a); idx != 0 {
		t.Errorf("Insert(a) = %d, want 0", idx)
	}
	if idx := subs.Insert(b); idx != 1 {
		t.Errorf("Insert(b) = %d, want 1", idx)
	}
	if subs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", subs.Len())
	}

	got, err := subs.Get(1)
	if err != nil {
		t.Fatalf("Get(1) error: %v", err)
	}
	if got != Node(b) {
		t.Errorf("Get(1) = %v, want b", got)
	}
	if _, err := subs.Get(2); !errors.Is(err, ErrInvalidBackref) {
		t.Errorf("Get(2) error = %v, want ErrInvalidBackref", err)
	}
	if _, err := subs.Get(-1); !errors.Is(err, ErrInvalidBackref) {
		t.Errorf("Get(-1) error = %v, want ErrInvalidBackref", err)
	}
}

func TestParseRegistersPrefixes(t *testing.T) {
	// space, space::inner, and space::inner::f's enclosing prefix chain
	// are candidates; the full nested name is not.
	_, subs, _, err := Parse([]byte("_ZN5space5inner1fEv"), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if subs.Len() != 2 {
		t.Fatalf("table has %d entries, want 2", subs.Len())
	}
	first, _ := subs.Get(0)
	if n, ok := first.(*Name); !ok || n.Text != "space" {
		t.Errorf("entry 0 = %#v, want Name{space}", first)
	}
	second, _ := subs.Get(1)
	if _, ok := second.(*Qualified); !ok {
		t.Errorf("entry 1 = %#v, want Qualified{space, inner}", second)
	}
}
