// Package demangle turns Itanium C++ ABI mangled names back into
// human-readable C++ declarations.
//
// A mangled name such as "_ZN5space3fooEii" is parsed into an AST and
// rendered as "space::foo(int, int)". Parsing and rendering are separate
// steps: Parse validates the input and keeps the AST, Demangle produces
// the text. The one-shot helper Demangle does both.
package demangle

import (
	"strings"

	"github.com/skdltmxn/cxxfilt-go/internal/itanium"
)

// Symbol is a parsed mangled name. It keeps the original input, the AST,
// and the substitution table needed to render it.
type Symbol struct {
	raw  string
	root itanium.Node
	subs *itanium.Substitutions
	tail string
	opts options
}

// Parse parses a complete mangled name. Input that has bytes left over
// after the grammar fails with ErrTrailingBytes, except for a vendor
// clone suffix (".cold", ".isra.0") when WithCloneSuffixes is set.
func Parse(name string, opts ...Option) (*Symbol, error) {
	sym, tail, err := ParseWithTail(name, opts...)
	if err != nil {
		return nil, err
	}
	if tail != "" {
		if sym.opts.cloneSuffixes && tail[0] == '.' {
			sym.root = &itanium.CloneSuffix{
				Encoding: sym.root,
				Suffixes: splitCloneSuffixes(tail),
			}
			sym.tail = ""
			return sym, nil
		}
		return nil, ErrTrailingBytes
	}
	return sym, nil
}

// ParseWithTail parses as much of name as the grammar matches and returns
// the unconsumed remainder. Useful for symbol tables where mangled names
// carry platform suffixes.
func ParseWithTail(name string, opts ...Option) (*Symbol, string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	input := name
	if o.stripUnderscore && strings.HasPrefix(input, "__Z") {
		input = input[1:]
	}

	root, subs, rest, err := itanium.Parse([]byte(input), itanium.Options{
		MaxDepth: o.maxDepth,
	})
	if err != nil {
		return nil, "", err
	}

	tail := string(rest.Rest())
	return &Symbol{
		raw:  name,
		root: root,
		subs: subs,
		tail: tail,
		opts: o,
	}, tail, nil
}

// Raw returns the original mangled input.
func (s *Symbol) Raw() string { return s.raw }

// Demangle renders the parsed name as C++ source text.
func (s *Symbol) Demangle() (string, error) {
	return itanium.Render(s.root, s.subs)
}

// String renders the symbol, falling back to the raw input if rendering
// fails. Use Demangle to observe the error.
func (s *Symbol) String() string {
	out, err := s.Demangle()
	if err != nil {
		return s.raw
	}
	return out
}

// Demangle is the one-shot form: parse name and render it.
func Demangle(name string, opts ...Option) (string, error) {
	sym, err := Parse(name, opts...)
	if err != nil {
		return "", err
	}
	return sym.Demangle()
}

// splitCloneSuffixes turns ".constprop.0.isra.1" into its dot-led parts.
func splitCloneSuffixes(tail string) []string {
	parts := strings.Split(tail[1:], ".")
	// GCC clone annotations pair a word with an optional counter; keep
	// "isra.0" together rather than splitting it.
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(out) > 0 && isDigits(p) {
			out[len(out)-1] += "." + p
			continue
		}
		out = append(out, p)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
