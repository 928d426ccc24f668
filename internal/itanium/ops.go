package itanium

// Operator describes one entry of the fixed operator-code table. Name is
// the operator-function spelling ("operator+"), Sym the token used when the
// operator appears inside an expression, and Arity the operand count when
// the code is legal in expression position (0 means names only).
type Operator struct {
	Code  string
	Name  string
	Sym   string
	Arity int
}

var operators = map[string]*Operator{
	"nw": {"nw", "operator new", "new", 0},
	"na": {"na", "operator new[]", "new[]", 0},
	"dl": {"dl", "operator delete", "delete", 1},
	"da": {"da", "operator delete[]", "delete[]", 1},
	"ps": {"ps", "operator+", "+", 1},
	"ng": {"ng", "operator-", "-", 1},
	"ad": {"ad", "operator&", "&", 1},
	"de": {"de", "operator*", "*", 1},
	"co": {"co", "operator~", "~", 1},
	"nt": {"nt", "operator!", "!", 1},
	"pp": {"pp", "operator++", "++", 1},
	"mm": {"mm", "operator--", "--", 1},
	"pl": {"pl", "operator+", "+", 2},
	"mi": {"mi", "operator-", "-", 2},
	"ml": {"ml", "operator*", "*", 2},
	"dv": {"dv", "operator/", "/", 2},
	"rm": {"rm", "operator%", "%", 2},
	"an": {"an", "operator&", "&", 2},
	"or": {"or", "operator|", "|", 2},
	"eo": {"eo", "operator^", "^", 2},
	"aS": {"aS", "operator=", "=", 2},
	"pL": {"pL", "operator+=", "+=", 2},
	"mI": {"mI", "operator-=", "-=", 2},
	"mL": {"mL", "operator*=", "*=", 2},
	"dV": {"dV", "operator/=", "/=", 2},
	"rM": {"rM", "operator%=", "%=", 2},
	"aN": {"aN", "operator&=", "&=", 2},
	"oR": {"oR", "operator|=", "|=", 2},
	"eO": {"eO", "operator^=", "^=", 2},
	"ls": {"ls", "operator<<", "<<", 2},
	"rs": {"rs", "operator>>", ">>", 2},
	"lS": {"lS", "operator<<=", "<<=", 2},
	"rS": {"rS", "operator>>=", ">>=", 2},
	"eq": {"eq", "operator==", "==", 2},
	"ne": {"ne", "operator!=", "!=", 2},
	"lt": {"lt", "operator<", "<", 2},
	"gt": {"gt", "operator>", ">", 2},
	"le": {"le", "operator<=", "<=", 2},
	"ge": {"ge", "operator>=", ">=", 2},
	"ss": {"ss", "operator<=>", "<=>", 2},
	"aa": {"aa", "operator&&", "&&", 2},
	"oo": {"oo", "operator||", "||", 2},
	"cm": {"cm", "operator,", ",", 2},
	"pm": {"pm", "operator->*", "->*", 2},
	"pt": {"pt", "operator->", "->", 2},
	"cl": {"cl", "operator()", "()", 0},
	"ix": {"ix", "operator[]", "[]", 2},
	"qu": {"qu", "operator?", "?", 3},
	"aw": {"aw", "operator co_await", "co_await", 1},
	"nx": {"nx", "operator noexcept", "noexcept", 1},
}

// lookupOperator returns the table entry for a two-byte operator code.
func lookupOperator(code string) (*Operator, bool) {
	op, ok := operators[code]
	return op, ok
}
