package demangle

import "github.com/skdltmxn/cxxfilt-go/internal/itanium"

type options struct {
	maxDepth        int
	stripUnderscore bool
	cloneSuffixes   bool
}

func defaultOptions() options {
	return options{maxDepth: itanium.DefaultMaxDepth}
}

// Option adjusts how a symbol is parsed and rendered.
type Option func(*options)

// WithMaxDepth overrides the recursion limit used while parsing. Values
// below one keep the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithStripLeadingUnderscore accepts Mach-O style symbols that carry an
// extra leading underscore ("__ZN..." instead of "_ZN...").
func WithStripLeadingUnderscore() Option {
	return func(o *options) { o.stripUnderscore = true }
}

// WithCloneSuffixes accepts GCC clone suffixes after the mangled name and
// renders them as " [clone .suffix]" annotations.
func WithCloneSuffixes() Option {
	return func(o *options) { o.cloneSuffixes = true }
}
