// Package itanium parses Itanium C++ ABI mangled names into an AST and
// renders the AST as C++ declarator syntax.
package itanium

// NodeKind identifies the grammar production an AST node came from.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	// Name productions
	NodeKindName
	NodeKindQualified
	NodeKindTemplate
	NodeKindTemplateArgs
	NodeKindArgPack
	NodeKindTemplateParam
	NodeKindCtorDtor
	NodeKindOperatorName
	NodeKindConversionOp
	NodeKindLiteralOp
	NodeKindVendorOp
	NodeKindLocalName
	NodeKindUnnamedType
	NodeKindClosure
	NodeKindSubstitution
	// Type productions
	NodeKindBuiltinType
	NodeKindVendorType
	NodeKindQualifiedType
	NodeKindPointerType
	NodeKindReferenceType
	NodeKindComplexType
	NodeKindFunctionType
	NodeKindArrayType
	NodeKindPtrToMemberType
	NodeKindPackExpansion
	NodeKindDecltype
	NodeKindElaboratedType
	// Expression productions
	NodeKindUnaryExpr
	NodeKindBinaryExpr
	NodeKindTernaryExpr
	NodeKindCallExpr
	NodeKindConvExpr
	NodeKindMemberExpr
	NodeKindScopeExpr
	NodeKindFunctionParam
	NodeKindSizeofExpr
	NodeKindThrowExpr
	NodeKindLiteral
	NodeKindExternalName
	// Encoding and special names
	NodeKindFunction
	NodeKindSpecialName
	NodeKindCtorVtable
	NodeKindThunk
	NodeKindRefTemporary
	NodeKindCloneSuffix
)

// Node is implemented by every AST node. Rendering is done by the renderer
// (render.go), not by the nodes themselves, because declarator assembly
// needs context a plain String method cannot carry.
type Node interface {
	Kind() NodeKind
}

// Name is a plain source name (an identifier), possibly annotated with
// ABI tags.
type Name struct {
	Text string
	Tags []string
}

func (*Name) Kind() NodeKind { return NodeKindName }

// Qualified is a scoped name: Scope::Name.
type Qualified struct {
	Scope Node
	Name  Node
}

func (*Qualified) Kind() NodeKind { return NodeKindQualified }

// Template is a named template instantiation: Base<Args>.
type Template struct {
	Base Node
	Args *TemplateArgs
}

func (*Template) Kind() NodeKind { return NodeKindTemplate }

// TemplateArgs is an argument list attached to a Template.
type TemplateArgs struct {
	Args []Node
}

func (*TemplateArgs) Kind() NodeKind { return NodeKindTemplateArgs }

// ArgPack is a template argument pack: zero or more arguments spliced
// into the enclosing argument list.
type ArgPack struct {
	Args []Node
}

func (*ArgPack) Kind() NodeKind { return NodeKindArgPack }

// TemplateParam is a reference to the Index-th parameter of the enclosing
// template (T_ is index 0, Tn_ is index n+1).
type TemplateParam struct {
	Index int
}

func (*TemplateParam) Kind() NodeKind { return NodeKindTemplateParam }

// CtorDtor is a constructor or destructor name. The class name is taken
// from the enclosing prefix at parse time.
type CtorDtor struct {
	Class Node
	Dtor  bool
	// Variant is the ABI flavor digit ('1' complete, '2' base, ...).
	// It does not affect rendering but is kept for structural fidelity.
	Variant byte
}

func (*CtorDtor) Kind() NodeKind { return NodeKindCtorDtor }

// OperatorName is a fixed-form operator function name such as operator+.
type OperatorName struct {
	Op *Operator
}

func (*OperatorName) Kind() NodeKind { return NodeKindOperatorName }

// ConversionOp is a conversion operator name: operator Target.
type ConversionOp struct {
	Target Node
}

func (*ConversionOp) Kind() NodeKind { return NodeKindConversionOp }

// LiteralOp is a user-defined literal operator name: operator"" _suffix.
type LiteralOp struct {
	Suffix string
}

func (*LiteralOp) Kind() NodeKind { return NodeKindLiteralOp }

// VendorOp is a vendor extended operator with an explicit arity.
type VendorOp struct {
	Name  string
	Arity int
}

func (*VendorOp) Kind() NodeKind { return NodeKindVendorOp }

// LocalName is an entity scoped inside a function: Function::Entity.
type LocalName struct {
	Function Node
	Entity   Node
	// Discriminator distinguishes same-named locals; -1 when absent.
	Discriminator int
	StringLiteral bool
}

func (*LocalName) Kind() NodeKind { return NodeKindLocalName }

// UnnamedType is an unnamed class or enum type: {unnamed type#N}.
type UnnamedType struct {
	Num int
}

func (*UnnamedType) Kind() NodeKind { return NodeKindUnnamedType }

// Closure is a lambda closure type: {lambda(Params)#N}.
type Closure struct {
	Params []Node
	Num    int
}

func (*Closure) Kind() NodeKind { return NodeKindClosure }

// Substitution is a back-reference into the substitution table. It is the
// only indirect relation in the tree; the renderer resolves it on demand.
type Substitution struct {
	Index int
}

func (*Substitution) Kind() NodeKind { return NodeKindSubstitution }

// Qualifiers carries CV qualifiers plus any vendor extended qualifiers.
type Qualifiers struct {
	Const    bool
	Volatile bool
	Restrict bool
	Vendor   []string
}

// Empty reports whether no qualifier is set.
func (q Qualifiers) Empty() bool {
	return !q.Const && !q.Volatile && !q.Restrict && len(q.Vendor) == 0
}

// RefQual is a member function reference qualifier.
type RefQual int

const (
	RefQualNone RefQual = iota
	RefQualLValue
	RefQualRValue
)

// BuiltinType is a fundamental type with a fixed spelling.
type BuiltinType struct {
	Name string
}

func (*BuiltinType) Kind() NodeKind { return NodeKindBuiltinType }

// VendorType is a vendor extended builtin type. Unlike fundamental types
// it is substitutable.
type VendorType struct {
	Name string
}

func (*VendorType) Kind() NodeKind { return NodeKindVendorType }

// QualifiedType applies CV qualifiers to an underlying type.
type QualifiedType struct {
	Quals Qualifiers
	Type  Node
}

func (*QualifiedType) Kind() NodeKind { return NodeKindQualifiedType }

// PointerType is a pointer to Pointee.
type PointerType struct {
	Pointee Node
}

func (*PointerType) Kind() NodeKind { return NodeKindPointerType }

// ReferenceType is an lvalue or rvalue reference to Pointee.
type ReferenceType struct {
	Pointee Node
	RValue  bool
}

func (*ReferenceType) Kind() NodeKind { return NodeKindReferenceType }

// ComplexType is a C99 complex or imaginary type.
type ComplexType struct {
	Base      Node
	Imaginary bool
}

func (*ComplexType) Kind() NodeKind { return NodeKindComplexType }

// FunctionType is a bare function type, possibly with member qualifiers.
type FunctionType struct {
	ExternC bool
	Return  Node
	Params  []Node
	Quals   Qualifiers
	RefQual RefQual
}

func (*FunctionType) Kind() NodeKind { return NodeKindFunctionType }

// ArrayType is an array of Element. Size is nil for an unbounded array, a
// Literal for a fixed dimension, or an expression node for a dependent one.
type ArrayType struct {
	Size    Node
	Element Node
}

func (*ArrayType) Kind() NodeKind { return NodeKindArrayType }

// PtrToMemberType is a pointer to a member of Class with type Member.
type PtrToMemberType struct {
	Class  Node
	Member Node
}

func (*PtrToMemberType) Kind() NodeKind { return NodeKindPtrToMemberType }

// PackExpansion is a template parameter pack expansion: Pattern... .
type PackExpansion struct {
	Pattern Node
}

func (*PackExpansion) Kind() NodeKind { return NodeKindPackExpansion }

// Decltype is decltype(Expr). IdExpr distinguishes Dt (id-expression) from
// DT (arbitrary expression); both render identically.
type Decltype struct {
	Expr   Node
	IdExpr bool
}

func (*Decltype) Kind() NodeKind { return NodeKindDecltype }

// ElaboratedType is a class/union/enum-prefixed type name.
type ElaboratedType struct {
	Keyword string
	Name    Node
}

func (*ElaboratedType) Kind() NodeKind { return NodeKindElaboratedType }

// UnaryExpr applies a unary operator. Postfix is set for the postfix
// increment and decrement forms.
type UnaryExpr struct {
	Op      string
	Operand Node
	Postfix bool
}

func (*UnaryExpr) Kind() NodeKind { return NodeKindUnaryExpr }

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
}

func (*BinaryExpr) Kind() NodeKind { return NodeKindBinaryExpr }

// TernaryExpr is the conditional operator.
type TernaryExpr struct {
	Cond Node
	Then Node
	Else Node
}

func (*TernaryExpr) Kind() NodeKind { return NodeKindTernaryExpr }

// CallExpr is a call expression: Callee(Args).
type CallExpr struct {
	Callee Node
	Args   []Node
}

func (*CallExpr) Kind() NodeKind { return NodeKindCallExpr }

// ConvExpr is a conversion-with-arguments expression: (Type)(Args).
type ConvExpr struct {
	Type Node
	Args []Node
}

func (*ConvExpr) Kind() NodeKind { return NodeKindConvExpr }

// MemberExpr is a member access: Object.Member or Object->Member.
type MemberExpr struct {
	Object Node
	Member Node
	Arrow  bool
}

func (*MemberExpr) Kind() NodeKind { return NodeKindMemberExpr }

// ScopeExpr is a scope resolution: Scope::Member.
type ScopeExpr struct {
	Scope  Node
	Member Node
}

func (*ScopeExpr) Kind() NodeKind { return NodeKindScopeExpr }

// FunctionParam references a parameter of the enclosing function.
type FunctionParam struct {
	Index int
}

func (*FunctionParam) Kind() NodeKind { return NodeKindFunctionParam }

// SizeofExpr is sizeof/alignof applied to a type or expression, or
// sizeof... applied to a parameter pack.
type SizeofExpr struct {
	Operand Node
	OfType  bool
	Align   bool
	Pack    bool
}

func (*SizeofExpr) Kind() NodeKind { return NodeKindSizeofExpr }

// ThrowExpr is a throw expression; a nil Operand is a rethrow.
type ThrowExpr struct {
	Operand Node
}

func (*ThrowExpr) Kind() NodeKind { return NodeKindThrowExpr }

// Literal is an expr-primary literal: a value of a given type.
type Literal struct {
	Type  Node
	Value string
	Neg   bool
}

func (*Literal) Kind() NodeKind { return NodeKindLiteral }

// ExternalName is an expr-primary that names an external entity.
type ExternalName struct {
	Encoding Node
}

func (*ExternalName) Kind() NodeKind { return NodeKindExternalName }

// Function is a function encoding: a name plus its bare function type.
// Return is nil unless the mangling carries an explicit return type
// (function templates). Quals and RefQual come from the nested-name.
type Function struct {
	Name    Node
	Return  Node
	Params  []Node
	Quals   Qualifiers
	RefQual RefQual
}

func (*Function) Kind() NodeKind { return NodeKindFunction }

// SpecialName is a special symbol with a fixed textual prefix, such as
// "vtable for " or "guard variable for ".
type SpecialName struct {
	Prefix string
	Target Node
}

func (*SpecialName) Kind() NodeKind { return NodeKindSpecialName }

// CtorVtable is a construction vtable: the vtable used for a Base
// subobject while constructing a Complete object.
type CtorVtable struct {
	Complete Node
	Offset   int64
	Base     Node
}

func (*CtorVtable) Kind() NodeKind { return NodeKindCtorVtable }

// Thunk is a virtual, non-virtual, or covariant-return thunk to Target.
type Thunk struct {
	Virtual   bool
	Covariant bool
	Target    Node
}

func (*Thunk) Kind() NodeKind { return NodeKindThunk }

// RefTemporary is a reference temporary for a name.
type RefTemporary struct {
	Name Node
	Num  int
}

func (*RefTemporary) Kind() NodeKind { return NodeKindRefTemporary }

// CloneSuffix annotates an encoding with vendor clone suffixes such as
// ".cold" or ".isra.0".
type CloneSuffix struct {
	Encoding Node
	Suffixes []string
}

func (*CloneSuffix) Kind() NodeKind { return NodeKindCloneSuffix }
