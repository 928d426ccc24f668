package demangle

import (
	"errors"
	"testing"
)

func TestDemangle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_Z3fooiii", "foo(int, int, int)"},
		{"_ZN5space3fooEii", "space::foo(int, int)"},
		{"_ZN5space3fooEibc", "space::foo(int, bool, char)"},
		{"_ZN1CC1Ev", "C::C()"},
		{"_ZNKSt6vectorIiSaIiEE4sizeEv",
			"std::vector<int, std::allocator<int>>::size() const"},
		{"_Z4makeIiET_v", "int make<int>()"},
		{"_ZTV1C", "vtable for C"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Demangle(tt.input)
			if err != nil {
				t.Fatalf("Demangle(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleErrors(t *testing.T) {
	if _, err := Demangle("not_a_symbol"); !errors.Is(err, ErrUnexpectedToken) {
		t.Errorf("Demangle(not_a_symbol) error = %v, want ErrUnexpectedToken", err)
	}
	if _, err := Demangle("_Z"); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("Demangle(_Z) error = %v, want ErrUnexpectedEnd", err)
	}
	if _, err := Demangle("_Z3foov.cold"); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("Demangle with suffix error = %v, want ErrTrailingBytes", err)
	}
	if _, err := Demangle("_ZNS0_1fEv"); !errors.Is(err, ErrInvalidBackref) {
		t.Errorf("Demangle bad backref error = %v, want ErrInvalidBackref", err)
	}

	var pe *ParseError
	_, err := Demangle("_ZN5space3fo")
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *ParseError", err)
	}
}

func TestParseWithTail(t *testing.T) {
	sym, tail, err := ParseWithTail("_Z3foov@plt")
	if err != nil {
		t.Fatalf("ParseWithTail error: %v", err)
	}
	if tail != "@plt" {
		t.Errorf("tail = %q, want \"@plt\"", tail)
	}
	out, err := sym.Demangle()
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if out != "foo()" {
		t.Errorf("Demangle = %q, want \"foo()\"", out)
	}
	if sym.Raw() != "_Z3foov@plt" {
		t.Errorf("Raw() = %q, want original input", sym.Raw())
	}

	sym, tail, err = ParseWithTail("_ZN5space3fooEibc and some trailing junk")
	if err != nil {
		t.Fatalf("ParseWithTail error: %v", err)
	}
	if tail != " and some trailing junk" {
		t.Errorf("tail = %q, want the unconsumed suffix", tail)
	}
	if got := sym.String(); got != "space::foo(int, bool, char)" {
		t.Errorf("String() = %q, want \"space::foo(int, bool, char)\"", got)
	}

	if _, err := Parse("_ZN5space3fooEibc and some trailing junk"); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("Parse with junk error = %v, want ErrTrailingBytes", err)
	}
}

func TestCloneSuffixes(t *testing.T) {
	got, err := Demangle("_Z3foov.cold", WithCloneSuffixes())
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if want := "foo() [clone .cold]"; got != want {
		t.Errorf("Demangle = %q, want %q", got, want)
	}

	got, err = Demangle("_Z3foov.isra.0", WithCloneSuffixes())
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if want := "foo() [clone .isra.0]"; got != want {
		t.Errorf("Demangle = %q, want %q", got, want)
	}

	got, err = Demangle("_Z3foov.constprop.0.cold", WithCloneSuffixes())
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if want := "foo() [clone .constprop.0] [clone .cold]"; got != want {
		t.Errorf("Demangle = %q, want %q", got, want)
	}
}

func TestStripLeadingUnderscore(t *testing.T) {
	if _, err := Demangle("__Z3foov"); err == nil {
		t.Error("Demangle(__Z3foov) without option succeeded, want error")
	}

	got, err := Demangle("__Z3foov", WithStripLeadingUnderscore())
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if got != "foo()" {
		t.Errorf("Demangle = %q, want \"foo()\"", got)
	}

	// Symbols without the extra underscore still work with the option on.
	got, err = Demangle("_Z3foov", WithStripLeadingUnderscore())
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if got != "foo()" {
		t.Errorf("Demangle = %q, want \"foo()\"", got)
	}
}

func TestWithMaxDepth(t *testing.T) {
	if _, err := Demangle("_Z1fPPPPPi", WithMaxDepth(3)); !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("Demangle with depth 3 error = %v, want ErrRecursionLimit", err)
	}
	got, err := Demangle("_Z1fPPPPPi")
	if err != nil {
		t.Fatalf("Demangle error: %v", err)
	}
	if got != "f(int*****)" {
		t.Errorf("Demangle = %q, want \"f(int*****)\"", got)
	}
}

func TestSymbolString(t *testing.T) {
	sym, err := Parse("_ZN5space3fooEii")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := sym.String(); got != "space::foo(int, int)" {
		t.Errorf("String() = %q, want \"space::foo(int, int)\"", got)
	}
}
