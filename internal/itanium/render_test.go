package itanium

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func demangle(t *testing.T, input string) string {
	t.Helper()
	root, subs, _, err := Parse([]byte(input), Options{})
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	out, err := Render(root, subs)
	if err != nil {
		t.Fatalf("Render(%q) error: %v", input, err)
	}
	return out
}

func TestDemangleFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_Z3fooiii", "foo(int, int, int)"},
		{"_Z1fv", "f()"},
		{"_ZN5space3fooEii", "space::foo(int, int)"},
		{"_ZN1X1fEv", "X::f()"},
		{"_ZNK1C3getEv", "C::get() const"},
		{"_Z6printfPKcz", "printf(char const*, ...)"},
		{"_Z1fOi", "f(int&&)"},
		{"_Z1fRKi", "f(int const&)"},
		{"_ZSt4cout", "std::cout"},
		{"_ZZ4mainE1x", "main::x"},
		{"_ZZ3foovE1x", "foo()::x"},
		{"_ZZ3foovE1x_0", "foo()::x"},
		{"_ZZN5space3barEvE1x", "space::bar()::x"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleCtorDtor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_ZN1CC1Ev", "C::C()"},
		{"_ZN1CC2Ei", "C::C(int)"},
		{"_ZN1CD0Ev", "C::~C()"},
		{"_ZN1CD1Ev", "C::~C()"},
		{"_ZNSt8ios_base4InitD1Ev", "std::ios_base::Init::~Init()"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleOperators(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_ZplRK1XS1_", "operator+(X const&, X const&)"},
		{"_ZltRK1XS1_", "operator<(X const&, X const&)"},
		{"_ZN1XaSERKS_", "X::operator=(X const&)"},
		{"_ZN1XcviEv", "X::operator int()"},
		{"_ZN1XnwEm", "X::operator new(unsigned long)"},
		{"_ZNSsixEm", "std::string::operator[](unsigned long)"},
		{"_Zli2_wPKc", `operator"" _w(char const*)`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleTemplates(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_Z4makeIiET_v", "int make<int>()"},
		{"_Z1fIiEvT_", "void f<int>(int)"},
		{"_Z4swapIiEvRT_S1_", "void swap<int>(int&, int&)"},
		{"_Z1fILi2EEvv", "void f<2>()"},
		{"_Z1fILb1EEvv", "void f<true>()"},
		{"_Z1fILin42EEvv", "void f<-42>()"},
		{"_Z1fIXplLi1ELi2EEEvv", "void f<(1)+(2)>()"},
		{"_Z1fIiXstT_EEvv", "void f<int, sizeof (int)>()"},
		{"_Z1fIJiicEEvDpT_", "void f<int, int, char>(int, int, char)"},
		{"_ZNSt6vectorIiSaIiEE9push_backERKi",
			"std::vector<int, std::allocator<int>>::push_back(int const&)"},
		{"_ZNKSt6vectorIiSaIiEE4sizeEv",
			"std::vector<int, std::allocator<int>>::size() const"},
		{"_Z1fSt6vectorISt6vectorIiEE", "f(std::vector<std::vector<int>>)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleTypes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_Z1fPFivE", "f(int (*)())"},
		{"_Z1fPFiiE", "f(int (*)(int))"},
		{"_Z1fPA3_i", "f(int (*)[3])"},
		{"_Z1fM1CFvvE", "f(void (C::*)())"},
		{"_Z1fM1CKFvvE", "f(void (C::*)() const)"},
		{"_Z1fM1Ci", "f(int C::*)"},
		{"_Z1fPVKi", "f(int const volatile*)"},
		{"_Z1fRSo", "f(std::ostream&)"},
		{"_Z1fRKSs", "f(std::string const&)"},
		{"_Z1fPPPi", "f(int***)"},
		{"_Z1fDh", "f(half)"},
		{"_Z1fDiDsDu", "f(char32_t, char16_t, char8_t)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleSpecialNames(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"_ZTV1C", "vtable for C"},
		{"_ZTIi", "typeinfo for int"},
		{"_ZTSN5space3fooE", "typeinfo name for space::foo"},
		{"_ZTC1B0_1A", "construction vtable for A-in-B"},
		{"_ZTW1x", "thread-local wrapper routine for x"},
		{"_ZGVN5space1xE", "guard variable for space::x"},
		{"_ZGR1x_", "reference temporary for x"},
		{"_ZThn16_N1C1fEv", "non-virtual thunk to C::f()"},
		{"_ZTv0_n24_N1C1fEv", "virtual thunk to C::f()"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangle(t, tt.input); got != tt.want {
				t.Errorf("demangle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDemangleLambda(t *testing.T) {
	got := demangle(t, "_ZZ4mainENKUlvE_clEv")
	want := "main::{lambda()#1}::operator()() const"
	if got != want {
		t.Errorf("demangle lambda = %q, want %q", got, want)
	}
}

func TestDemangleAbiTags(t *testing.T) {
	got := demangle(t, "_Z1fB5cxx11i")
	want := "f[abi:cxx11](int)"
	if got != want {
		t.Errorf("demangle abi tag = %q, want %q", got, want)
	}
}

func TestDemangleSubstitutionsShareNodes(t *testing.T) {
	// PNS_1AE registers N::A and its pointer; S1_ must reproduce the
	// pointer type exactly.
	got := demangle(t, "_ZN1N1fEPNS_1AES1_")
	want := "N::f(N::A*, N::A*)"
	if got != want {
		t.Errorf("demangle = %q, want %q", got, want)
	}
}

func TestRenderDeterministic(t *testing.T) {
	input := "_ZNSt6vectorIiSaIiEE9push_backERKi"

	root1, subs1, _, err := Parse([]byte(input), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	root2, _, _, err := Parse([]byte(input), Options{})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if diff := cmp.Diff(root1, root2); diff != "" {
		t.Errorf("parse is not deterministic (-first +second):\n%s", diff)
	}

	// Rendering must not mutate the tree or the table.
	first, err := Render(root1, subs1)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	second, err := Render(root1, subs1)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if first != second {
		t.Errorf("repeated Render differs: %q then %q", first, second)
	}
}
