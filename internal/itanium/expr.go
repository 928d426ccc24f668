package itanium

import (
	"github.com/skdltmxn/cxxfilt-go/internal/cursor"
)

// <expression> covers the subset of the expression grammar that shows up in
// template arguments, array bounds, and decltype: operator applications
// driven by the arity table, member and scope access, conversions, calls,
// sizeof/alignof, throw, parameter references, and literals.
func (p *parser) parseExpression(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("expression", c, d); err != nil {
		return nil, c, err
	}
	b, ok := c.Peek()
	if !ok {
		return nil, c, parseErr("expression", c.Offset(), ErrUnexpectedEnd)
	}

	switch b {
	case 'L':
		return p.parseExprPrimary(c, d+1)
	case 'T':
		return p.parseTemplateParam(c)
	case 'J':
		// Initializer lists inside expressions are out of grammar scope
		// here; braced-init manglings fail cleanly.
		return nil, c, parseErr("expression", c.Offset(), ErrUnexpectedToken)
	case 'f':
		if v, ok := c.PeekAt(1); ok && v == 'p' {
			return p.parseFunctionParam(c)
		}
	}

	if b >= '0' && b <= '9' {
		// <unresolved-name> spelled as a plain (possibly template) name.
		name, rest, err := p.parseSourceName(c)
		if err != nil {
			return nil, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return &Template{Base: name, Args: args}, r2, nil
		}
		return name, rest, nil
	}

	code, rest, err := c.Take(2)
	if err != nil {
		return nil, c, parseErr("expression", c.Offset(), ErrUnexpectedEnd)
	}

	switch string(code) {
	case "pp", "mm":
		// pp_ and mm_ are the prefix forms; bare pp/mm are postfix.
		sym := "++"
		if code[0] == 'm' {
			sym = "--"
		}
		postfix := true
		if nb, ok := rest.Peek(); ok && nb == '_' {
			rest, _ = rest.Advance(1)
			postfix = false
		}
		operand, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &UnaryExpr{Op: sym, Operand: operand, Postfix: postfix}, rest, nil

	case "cl":
		callee, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		call := &CallExpr{Callee: callee}
		for {
			b, ok := rest.Peek()
			if !ok {
				return nil, c, parseErr("expression", rest.Offset(), ErrUnexpectedEnd)
			}
			if b == 'E' {
				rest, _ = rest.Advance(1)
				return call, rest, nil
			}
			arg, r2, err := p.parseExpression(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			call.Args = append(call.Args, arg)
			rest = r2
		}

	case "cv":
		t, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		conv := &ConvExpr{Type: t}
		if nb, ok := rest.Peek(); ok && nb == '_' {
			rest, _ = rest.Advance(1)
			for {
				b, ok := rest.Peek()
				if !ok {
					return nil, c, parseErr("expression", rest.Offset(), ErrUnexpectedEnd)
				}
				if b == 'E' {
					rest, _ = rest.Advance(1)
					return conv, rest, nil
				}
				arg, r2, err := p.parseExpression(rest, d+1)
				if err != nil {
					return nil, c, err
				}
				conv.Args = append(conv.Args, arg)
				rest = r2
			}
		}
		arg, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		conv.Args = append(conv.Args, arg)
		return conv, rest, nil

	case "dt", "pt":
		obj, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		member, rest, err := p.parseUnqualifiedName(rest, nil, d+1)
		if err != nil {
			return nil, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			member = &Template{Base: member, Args: args}
			rest = r2
		}
		return &MemberExpr{Object: obj, Member: member, Arrow: code[0] == 'p'}, rest, nil

	case "sr":
		scope, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		member, rest, err := p.parseUnqualifiedName(rest, nil, d+1)
		if err != nil {
			return nil, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			member = &Template{Base: member, Args: args}
			rest = r2
		}
		return &ScopeExpr{Scope: scope, Member: member}, rest, nil

	case "sp":
		operand, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &PackExpansion{Pattern: operand}, rest, nil

	case "st", "at":
		t, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &SizeofExpr{Operand: t, OfType: true, Align: code[0] == 'a'}, rest, nil

	case "sz", "az":
		e, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &SizeofExpr{Operand: e, Align: code[0] == 'a'}, rest, nil

	case "sZ":
		e, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &SizeofExpr{Operand: e, Pack: true}, rest, nil

	case "tw":
		e, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &ThrowExpr{Operand: e}, rest, nil

	case "tr":
		return &ThrowExpr{}, rest, nil
	}

	op, ok := lookupOperator(string(code))
	if !ok || op.Arity == 0 {
		return nil, c, parseErr("expression", c.Offset(), ErrUnexpectedToken)
	}
	switch op.Arity {
	case 1:
		operand, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &UnaryExpr{Op: op.Sym, Operand: operand}, rest, nil
	case 2:
		left, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		right, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &BinaryExpr{Op: op.Sym, Left: left, Right: right}, rest, nil
	default:
		cond, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		then, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		els, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &TernaryExpr{Cond: cond, Then: then, Else: els}, rest, nil
	}
}

// <function-param> ::= fp <top-level CV-qualifiers> _
//                  ::= fp <top-level CV-qualifiers> <parameter-2 number> _
func (p *parser) parseFunctionParam(c cursor.Cursor) (Node, cursor.Cursor, error) {
	rest, _ := c.Advance(2) // fp
	_, rest = parseCVQualifiers(rest)

	b, ok := rest.Peek()
	if !ok {
		return nil, c, parseErr("function-param", rest.Offset(), ErrUnexpectedEnd)
	}
	if b == '_' {
		rest, _ = rest.Advance(1)
		return &FunctionParam{Index: 0}, rest, nil
	}
	n, rest, err := p.parseDecimal(rest, true)
	if err != nil {
		return nil, c, err
	}
	rest, err = p.expect("function-param", rest, '_')
	if err != nil {
		return nil, c, err
	}
	return &FunctionParam{Index: n + 1}, rest, nil
}

// <expr-primary> ::= L <type> <value number> E
//                ::= L <type> <value float> E
//                ::= L <mangled-name> E
func (p *parser) parseExprPrimary(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	rest, err := p.expect("expr-primary", c, 'L')
	if err != nil {
		return nil, c, err
	}

	if rest.HasPrefix("_Z") {
		r2, _ := rest.Advance(2)
		enc, r2, err := p.parseEncoding(r2, d+1)
		if err != nil {
			return nil, c, err
		}
		r2, err = p.expect("expr-primary", r2, 'E')
		if err != nil {
			return nil, c, err
		}
		return &ExternalName{Encoding: enc}, r2, nil
	}

	t, rest, err := p.parseType(rest, d+1)
	if err != nil {
		return nil, c, err
	}

	lit := &Literal{Type: t}
	if b, ok := rest.Peek(); ok && b == 'n' {
		lit.Neg = true
		rest, _ = rest.Advance(1)
	}
	for {
		b, ok := rest.Peek()
		if !ok {
			return nil, c, parseErr("expr-primary", rest.Offset(), ErrUnexpectedEnd)
		}
		if b == 'E' {
			rest, _ = rest.Advance(1)
			return lit, rest, nil
		}
		if !isLiteralByte(b) {
			return nil, c, parseErr("expr-primary", rest.Offset(), ErrUnexpectedToken)
		}
		lit.Value += string(b)
		rest, _ = rest.Advance(1)
	}
}

// isLiteralByte reports whether b can appear in a mangled literal value:
// decimal digits for integers, lowercase hex for floats.
func isLiteralByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || b == '.'
}
