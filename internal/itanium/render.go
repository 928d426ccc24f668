package itanium

import (
	"strconv"
	"strings"
)

// Render walks the AST rooted at root and produces the demangled C++ text.
// Back-references are resolved through the substitution table on demand; a
// reference chain that revisits an entry already being rendered fails with
// ErrFormatting instead of looping.
func Render(root Node, subs *Substitutions) (string, error) {
	r := &renderer{subs: subs, active: make(map[int]bool)}
	return r.node(root)
}

type renderer struct {
	subs   *Substitutions
	active map[int]bool
	// tmplArgs is the stack of enclosing template argument lists used to
	// resolve template-parameter references while rendering a function
	// template's signature.
	tmplArgs []*TemplateArgs
}

// node renders names, encodings, special names, and expressions. Type
// nodes are delegated to the declarator composer.
func (r *renderer) node(n Node) (string, error) {
	switch v := n.(type) {
	case *Name:
		s := v.Text
		for _, tag := range v.Tags {
			s += "[abi:" + tag + "]"
		}
		return s, nil

	case *Qualified:
		scope, err := r.node(v.Scope)
		if err != nil {
			return "", err
		}
		name, err := r.node(v.Name)
		if err != nil {
			return "", err
		}
		return scope + "::" + name, nil

	case *Template:
		base, err := r.node(v.Base)
		if err != nil {
			return "", err
		}
		args, err := r.argList(v.Args.Args)
		if err != nil {
			return "", err
		}
		// Adjacent closing brackets are intentional; pre-C++11 output
		// would need "> >" here.
		return base + "<" + args + ">", nil

	case *TemplateArgs:
		return r.argList(v.Args)

	case *ArgPack:
		return r.argList(v.Args)

	case *TemplateParam:
		arg, err := r.lookupTemplateArg(v.Index)
		if err != nil {
			return "", err
		}
		return r.node(arg)

	case *CtorDtor:
		base, err := r.baseName(v.Class)
		if err != nil {
			return "", err
		}
		if v.Dtor {
			return "~" + base, nil
		}
		return base, nil

	case *OperatorName:
		return v.Op.Name, nil

	case *ConversionOp:
		t, err := r.typeStr(v.Target, "")
		if err != nil {
			return "", err
		}
		return "operator " + t, nil

	case *LiteralOp:
		return `operator"" ` + v.Suffix, nil

	case *VendorOp:
		return "operator " + v.Name, nil

	case *LocalName:
		fn, err := r.node(v.Function)
		if err != nil {
			return "", err
		}
		if v.StringLiteral {
			return fn + "::string literal", nil
		}
		entity, err := r.node(v.Entity)
		if err != nil {
			return "", err
		}
		return fn + "::" + entity, nil

	case *UnnamedType:
		return "{unnamed type#" + strconv.Itoa(v.Num+1) + "}", nil

	case *Closure:
		params, err := r.paramList(v.Params)
		if err != nil {
			return "", err
		}
		return "{lambda(" + params + ")#" + strconv.Itoa(v.Num+1) + "}", nil

	case *Substitution:
		release, target, err := r.enterSub(v.Index)
		if err != nil {
			return "", err
		}
		defer release()
		return r.node(target)

	case *Function:
		return r.function(v)

	case *SpecialName:
		target, err := r.node(v.Target)
		if err != nil {
			return "", err
		}
		return v.Prefix + target, nil

	case *CtorVtable:
		base, err := r.node(v.Base)
		if err != nil {
			return "", err
		}
		complete, err := r.node(v.Complete)
		if err != nil {
			return "", err
		}
		return "construction vtable for " + base + "-in-" + complete, nil

	case *Thunk:
		target, err := r.node(v.Target)
		if err != nil {
			return "", err
		}
		switch {
		case v.Covariant:
			return "covariant return thunk to " + target, nil
		case v.Virtual:
			return "virtual thunk to " + target, nil
		default:
			return "non-virtual thunk to " + target, nil
		}

	case *RefTemporary:
		name, err := r.node(v.Name)
		if err != nil {
			return "", err
		}
		return "reference temporary for " + name, nil

	case *CloneSuffix:
		s, err := r.node(v.Encoding)
		if err != nil {
			return "", err
		}
		for _, suffix := range v.Suffixes {
			s += " [clone ." + suffix + "]"
		}
		return s, nil

	case *UnaryExpr:
		operand, err := r.node(v.Operand)
		if err != nil {
			return "", err
		}
		if v.Postfix {
			return "(" + operand + ")" + v.Op, nil
		}
		return v.Op + "(" + operand + ")", nil

	case *BinaryExpr:
		left, err := r.node(v.Left)
		if err != nil {
			return "", err
		}
		right, err := r.node(v.Right)
		if err != nil {
			return "", err
		}
		if v.Op == "[]" {
			return "(" + left + ")[" + right + "]", nil
		}
		return "(" + left + ")" + v.Op + "(" + right + ")", nil

	case *TernaryExpr:
		cond, err := r.node(v.Cond)
		if err != nil {
			return "", err
		}
		then, err := r.node(v.Then)
		if err != nil {
			return "", err
		}
		els, err := r.node(v.Else)
		if err != nil {
			return "", err
		}
		return "(" + cond + ")?(" + then + "):(" + els + ")", nil

	case *CallExpr:
		callee, err := r.node(v.Callee)
		if err != nil {
			return "", err
		}
		args, err := r.exprList(v.Args)
		if err != nil {
			return "", err
		}
		return callee + "(" + args + ")", nil

	case *ConvExpr:
		t, err := r.typeStr(v.Type, "")
		if err != nil {
			return "", err
		}
		args, err := r.exprList(v.Args)
		if err != nil {
			return "", err
		}
		return "(" + t + ")(" + args + ")", nil

	case *MemberExpr:
		obj, err := r.node(v.Object)
		if err != nil {
			return "", err
		}
		member, err := r.node(v.Member)
		if err != nil {
			return "", err
		}
		sep := "."
		if v.Arrow {
			sep = "->"
		}
		return obj + sep + member, nil

	case *ScopeExpr:
		scope, err := r.typeStr(v.Scope, "")
		if err != nil {
			return "", err
		}
		member, err := r.node(v.Member)
		if err != nil {
			return "", err
		}
		return scope + "::" + member, nil

	case *FunctionParam:
		return "{parm#" + strconv.Itoa(v.Index+1) + "}", nil

	case *SizeofExpr:
		var operand string
		var err error
		if v.OfType {
			operand, err = r.typeStr(v.Operand, "")
		} else {
			operand, err = r.node(v.Operand)
		}
		if err != nil {
			return "", err
		}
		switch {
		case v.Pack:
			return "sizeof...(" + operand + ")", nil
		case v.Align:
			return "alignof (" + operand + ")", nil
		default:
			return "sizeof (" + operand + ")", nil
		}

	case *ThrowExpr:
		if v.Operand == nil {
			return "throw", nil
		}
		operand, err := r.node(v.Operand)
		if err != nil {
			return "", err
		}
		return "throw " + operand, nil

	case *Literal:
		return r.literal(v)

	case *ExternalName:
		return r.node(v.Encoding)
	}

	// Anything else is a type production.
	return r.typeStr(n, "")
}

// function renders a function encoding. If the function name is a template
// instantiation, its argument list is in scope for the return type and
// parameters.
func (r *renderer) function(fn *Function) (string, error) {
	if t, ok := fn.Name.(*Template); ok {
		r.tmplArgs = append(r.tmplArgs, t.Args)
		defer func() { r.tmplArgs = r.tmplArgs[:len(r.tmplArgs)-1] }()
	}

	var sb strings.Builder
	if fn.Return != nil {
		ret, err := r.typeStr(fn.Return, "")
		if err != nil {
			return "", err
		}
		sb.WriteString(ret)
		sb.WriteByte(' ')
	}

	name, err := r.node(fn.Name)
	if err != nil {
		return "", err
	}
	sb.WriteString(name)

	params, err := r.paramList(fn.Params)
	if err != nil {
		return "", err
	}
	sb.WriteByte('(')
	sb.WriteString(params)
	sb.WriteByte(')')

	sb.WriteString(qualSuffix(fn.Quals, fn.RefQual))
	return sb.String(), nil
}

// literal renders an expr-primary with the conventional spellings for
// bool, nullptr, and the integer suffixes.
func (r *renderer) literal(lit *Literal) (string, error) {
	t, err := r.resolve(lit.Type)
	if err != nil {
		return "", err
	}
	value := lit.Value
	if lit.Neg {
		value = "-" + value
	}
	if bt, ok := t.(*BuiltinType); ok {
		switch bt.Name {
		case "bool":
			switch lit.Value {
			case "0":
				return "false", nil
			case "1":
				return "true", nil
			}
		case "std::nullptr_t":
			return "nullptr", nil
		case "int":
			return value, nil
		case "unsigned int":
			return value + "u", nil
		case "long":
			return value + "l", nil
		case "unsigned long":
			return value + "ul", nil
		case "long long":
			return value + "ll", nil
		case "unsigned long long":
			return value + "ull", nil
		}
	}
	ts, err := r.typeStr(lit.Type, "")
	if err != nil {
		return "", err
	}
	return "(" + ts + ")" + value, nil
}

// enterSub resolves a substitution index, marking it active for the
// duration of the returned release function. Revisiting an active index
// means the table forms a render cycle.
func (r *renderer) enterSub(index int) (func(), Node, error) {
	if r.active[index] {
		return nil, nil, ErrFormatting
	}
	target, err := r.subs.Get(index)
	if err != nil {
		return nil, nil, err
	}
	r.active[index] = true
	return func() { delete(r.active, index) }, target, nil
}

// resolve follows substitution indirections for inspection purposes.
func (r *renderer) resolve(n Node) (Node, error) {
	for {
		sub, ok := n.(*Substitution)
		if !ok {
			return n, nil
		}
		target, err := r.subs.Get(sub.Index)
		if err != nil {
			return nil, err
		}
		n = target
	}
}

func (r *renderer) lookupTemplateArg(index int) (Node, error) {
	if len(r.tmplArgs) == 0 {
		return nil, ErrFormatting
	}
	args := r.tmplArgs[len(r.tmplArgs)-1]
	if index < 0 || index >= len(args.Args) {
		return nil, ErrFormatting
	}
	return args.Args[index], nil
}

// argList renders template arguments, splicing packs inline.
func (r *renderer) argList(args []Node) (string, error) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		resolved, err := r.resolve(arg)
		if err != nil {
			return "", err
		}
		if pack, ok := resolved.(*ArgPack); ok {
			for _, inner := range pack.Args {
				s, err := r.node(inner)
				if err != nil {
					return "", err
				}
				parts = append(parts, s)
			}
			continue
		}
		s, err := r.node(arg)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

// paramList renders function parameters; a lone void means "no parameters".
func (r *renderer) paramList(params []Node) (string, error) {
	if len(params) == 1 {
		t, err := r.resolve(params[0])
		if err != nil {
			return "", err
		}
		if bt, ok := t.(*BuiltinType); ok && bt.Name == "void" {
			return "", nil
		}
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s, err := r.typeStr(p, "")
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

func (r *renderer) exprList(exprs []Node) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s, err := r.node(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

// baseName extracts the spelling a constructor or destructor uses: the
// last name component of its class, without template arguments.
func (r *renderer) baseName(n Node) (string, error) {
	resolved, err := r.resolve(n)
	if err != nil {
		return "", err
	}
	switch v := resolved.(type) {
	case *Name:
		return v.Text, nil
	case *Qualified:
		return r.baseName(v.Name)
	case *Template:
		return r.baseName(v.Base)
	case *TemplateParam:
		arg, err := r.lookupTemplateArg(v.Index)
		if err != nil {
			return "", err
		}
		return r.baseName(arg)
	default:
		return r.node(resolved)
	}
}

// qualSuffix renders trailing member function qualifiers.
func qualSuffix(q Qualifiers, ref RefQual) string {
	var sb strings.Builder
	if q.Const {
		sb.WriteString(" const")
	}
	if q.Volatile {
		sb.WriteString(" volatile")
	}
	if q.Restrict {
		sb.WriteString(" __restrict")
	}
	for _, v := range q.Vendor {
		sb.WriteByte(' ')
		sb.WriteString(v)
	}
	switch ref {
	case RefQualLValue:
		sb.WriteString(" &")
	case RefQualRValue:
		sb.WriteString(" &&")
	}
	return sb.String()
}

// combine joins a base type spelling with a declarator fragment following
// C declarator spacing: * and & attach directly, everything else is
// separated by one space.
func combine(base, inner string) string {
	if inner == "" {
		return base
	}
	if inner[0] == '*' || inner[0] == '&' {
		return base + inner
	}
	return base + " " + inner
}

// needsParens reports whether a pointer or reference into t must be
// parenthesized because arrays and function suffixes bind tighter.
func (r *renderer) needsParens(t Node) bool {
	resolved, err := r.resolve(t)
	if err != nil {
		return false
	}
	switch v := resolved.(type) {
	case *ArrayType, *FunctionType:
		return true
	case *QualifiedType:
		return r.needsParens(v.Type)
	}
	return false
}

// typeStr composes the C++ spelling of type t wrapped around the
// declarator fragment inner, applying right-to-left declarator rules.
func (r *renderer) typeStr(t Node, inner string) (string, error) {
	switch v := t.(type) {
	case *BuiltinType:
		return combine(v.Name, inner), nil

	case *VendorType:
		return combine(v.Name, inner), nil

	case *QualifiedType:
		resolved, err := r.resolve(v.Type)
		if err != nil {
			return "", err
		}
		if ft, ok := resolved.(*FunctionType); ok {
			return r.funcTypeStr(ft, inner, v.Quals)
		}
		base, err := r.typeStr(v.Type, "")
		if err != nil {
			return "", err
		}
		return combine(base+qualSuffix(v.Quals, RefQualNone), inner), nil

	case *PointerType:
		if r.needsParens(v.Pointee) {
			return r.typeStr(v.Pointee, "(*"+inner+")")
		}
		return r.typeStr(v.Pointee, "*"+inner)

	case *ReferenceType:
		amp := "&"
		if v.RValue {
			amp = "&&"
		}
		if r.needsParens(v.Pointee) {
			return r.typeStr(v.Pointee, "("+amp+inner+")")
		}
		return r.typeStr(v.Pointee, amp+inner)

	case *ComplexType:
		base, err := r.typeStr(v.Base, "")
		if err != nil {
			return "", err
		}
		kw := " _Complex"
		if v.Imaginary {
			kw = " _Imaginary"
		}
		return combine(base+kw, inner), nil

	case *FunctionType:
		return r.funcTypeStr(v, inner, Qualifiers{})

	case *ArrayType:
		size := ""
		if v.Size != nil {
			s, err := r.node(v.Size)
			if err != nil {
				return "", err
			}
			size = s
		}
		return r.typeStr(v.Element, inner+"["+size+"]")

	case *PtrToMemberType:
		cls, err := r.typeStr(v.Class, "")
		if err != nil {
			return "", err
		}
		member, err := r.resolve(v.Member)
		if err != nil {
			return "", err
		}
		if qt, ok := member.(*QualifiedType); ok {
			if ft, ok2 := mustResolve(r, qt.Type).(*FunctionType); ok2 {
				return r.funcTypeStr(ft, "("+cls+"::*"+inner+")", qt.Quals)
			}
		}
		if ft, ok := member.(*FunctionType); ok {
			return r.funcTypeStr(ft, "("+cls+"::*"+inner+")", Qualifiers{})
		}
		return r.typeStr(v.Member, cls+"::*"+inner)

	case *PackExpansion:
		// A pattern bound to an argument pack expands to the pack's
		// elements; anything still dependent keeps the ellipsis.
		if tp, ok := v.Pattern.(*TemplateParam); ok {
			if arg, err := r.lookupTemplateArg(tp.Index); err == nil {
				if pack, ok := arg.(*ArgPack); ok {
					s, err := r.argList(pack.Args)
					if err != nil {
						return "", err
					}
					return combine(s, inner), nil
				}
			}
		}
		base, err := r.node(v.Pattern)
		if err != nil {
			return "", err
		}
		return combine(base+"...", inner), nil

	case *Decltype:
		e, err := r.node(v.Expr)
		if err != nil {
			return "", err
		}
		return combine("decltype ("+e+")", inner), nil

	case *ElaboratedType:
		name, err := r.node(v.Name)
		if err != nil {
			return "", err
		}
		return combine(v.Keyword+" "+name, inner), nil

	case *TemplateParam:
		arg, err := r.lookupTemplateArg(v.Index)
		if err != nil {
			return "", err
		}
		return r.typeStr(arg, inner)

	case *Substitution:
		release, target, err := r.enterSub(v.Index)
		if err != nil {
			return "", err
		}
		defer release()
		return r.typeStr(target, inner)

	case *ArgPack:
		s, err := r.argList(v.Args)
		if err != nil {
			return "", err
		}
		return combine(s, inner), nil

	case *Name, *Qualified, *Template, *LocalName, *CtorDtor,
		*UnnamedType, *Closure:
		s, err := r.node(t)
		if err != nil {
			return "", err
		}
		return combine(s, inner), nil
	}

	return "", ErrFormatting
}

// funcTypeStr renders a (possibly member qualified) function type around
// the declarator fragment inner.
func (r *renderer) funcTypeStr(ft *FunctionType, inner string, extra Qualifiers) (string, error) {
	params, err := r.paramList(ft.Params)
	if err != nil {
		return "", err
	}
	quals := Qualifiers{
		Const:    ft.Quals.Const || extra.Const,
		Volatile: ft.Quals.Volatile || extra.Volatile,
		Restrict: ft.Quals.Restrict || extra.Restrict,
		Vendor:   append(append([]string(nil), ft.Quals.Vendor...), extra.Vendor...),
	}
	suffix := inner + "(" + params + ")" + qualSuffix(quals, ft.RefQual)
	if ft.Return == nil {
		return suffix, nil
	}
	return r.typeStr(ft.Return, suffix)
}

// mustResolve is resolve without the error plumbing, for inspection paths
// where the index was already validated at parse time.
func mustResolve(r *renderer, n Node) Node {
	resolved, err := r.resolve(n)
	if err != nil {
		return n
	}
	return resolved
}
