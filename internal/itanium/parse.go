package itanium

import (
	"errors"
	"strconv"

	"fortio.org/safecast"

	"github.com/skdltmxn/cxxfilt-go/internal/cursor"
)

// DefaultMaxDepth bounds grammar recursion when Options.MaxDepth is unset.
// Legitimate symbols rarely nest past a few dozen levels; crafted inputs
// nest thousands.
const DefaultMaxDepth = 96

// Options configure a parse.
type Options struct {
	// MaxDepth caps recursive descent into types, expressions, and
	// template arguments. Zero selects DefaultMaxDepth.
	MaxDepth int
}

// Parse consumes an Itanium mangled name starting at "_Z" and returns the
// root AST node, the substitution table populated during the parse, and
// the cursor positioned after the matched grammar. The caller decides
// whether leftover bytes are an error.
func Parse(data []byte, opts Options) (Node, *Substitutions, cursor.Cursor, error) {
	c := cursor.New(data)
	if c.Len() < 2 {
		return nil, nil, c, parseErr("mangled-name", 0, ErrUnexpectedEnd)
	}
	if !c.HasPrefix("_Z") {
		return nil, nil, c, parseErr("mangled-name", 0, ErrUnexpectedToken)
	}
	c, _ = c.Advance(2)

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &parser{subs: &Substitutions{}, maxDepth: maxDepth}

	root, rest, err := p.parseEncoding(c, 0)
	if err != nil {
		return nil, nil, c, err
	}
	return root, p.subs, rest, nil
}

type parser struct {
	subs     *Substitutions
	maxDepth int
}

// nameInfo carries facts about a parsed <name> that the enclosing
// <encoding> needs: whether a return type must follow and which member
// qualifiers the nested-name contributed.
type nameInfo struct {
	template bool
	ctorDtor bool
	conv     bool
	quals    Qualifiers
	refQual  RefQual
}

func (p *parser) guard(prod string, c cursor.Cursor, d int) error {
	if d >= p.maxDepth {
		return parseErr(prod, c.Offset(), ErrRecursionLimit)
	}
	return nil
}

func (p *parser) next(prod string, c cursor.Cursor) (byte, cursor.Cursor, error) {
	b, rest, err := c.Next()
	if err != nil {
		return 0, c, parseErr(prod, c.Offset(), ErrUnexpectedEnd)
	}
	return b, rest, nil
}

func (p *parser) expect(prod string, c cursor.Cursor, ch byte) (cursor.Cursor, error) {
	b, rest, err := p.next(prod, c)
	if err != nil {
		return c, err
	}
	if b != ch {
		return c, parseErr(prod, c.Offset(), ErrUnexpectedToken)
	}
	return rest, nil
}

// register appends a confirmed substitutable node to the table.
func (p *parser) register(n Node) Node {
	p.subs.Insert(n)
	return n
}

// <encoding> ::= <function name> <bare-function-type>
//            ::= <data name>
//            ::= <special-name>
func (p *parser) parseEncoding(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("encoding", c, d); err != nil {
		return nil, c, err
	}
	if b, ok := c.Peek(); ok {
		if b == 'T' || b == 'G' {
			if n, rest, err := p.parseSpecialName(c, d+1); err == nil {
				return n, rest, nil
			} else if b == 'T' && errors.Is(err, ErrUnexpectedToken) {
				// Not a special name; fall through so names beginning
				// with a template-param component still parse.
			} else {
				return nil, c, err
			}
		}
	}

	name, info, c, err := p.parseName(c, d+1)
	if err != nil {
		return nil, c, err
	}

	// A data name ends the encoding. A function name is followed by its
	// bare function type; the split is decided by whether a signature
	// actually parses here.
	fn := &Function{Name: name, Quals: info.quals, RefQual: info.refQual}
	after := c

	if info.template && !info.ctorDtor && !info.conv {
		ret, rest, err := p.parseType(after, d+1)
		if err != nil {
			if errors.Is(err, ErrRecursionLimit) {
				return nil, c, err
			}
			return name, c, nil
		}
		fn.Return = ret
		after = rest
	}

	first, rest, err := p.parseType(after, d+1)
	if err != nil {
		if errors.Is(err, ErrRecursionLimit) {
			return nil, c, err
		}
		if fn.Return != nil {
			// Function template with an explicit return type and no
			// parameters spelled out.
			return fn, after, nil
		}
		return name, c, nil
	}
	fn.Params = append(fn.Params, first)
	after = rest

	for {
		t, rest, err := p.parseType(after, d+1)
		if err != nil {
			break
		}
		fn.Params = append(fn.Params, t)
		after = rest
	}
	return fn, after, nil
}

// <special-name> ::= TV <type>  # virtual table
//                ::= TT <type>  # VTT structure
//                ::= TI <type>  # typeinfo structure
//                ::= TS <type>  # typeinfo name
//                ::= TC <type> <offset number> _ <base type>
//                ::= T <call-offset> <base encoding>
//                ::= Tc <call-offset> <call-offset> <base encoding>
//                ::= TW <name>  # thread-local wrapper
//                ::= TH <name>  # thread-local initialization
//                ::= GV <name>  # guard variable
//                ::= GR <name> [<seq-id>] _  # reference temporary
func (p *parser) parseSpecialName(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("special-name", c, d); err != nil {
		return nil, c, err
	}
	b, c1, err := p.next("special-name", c)
	if err != nil {
		return nil, c, err
	}
	k, c2, err := p.next("special-name", c1)
	if err != nil {
		return nil, c, err
	}

	switch b {
	case 'T':
		switch k {
		case 'V', 'T', 'I', 'S':
			t, rest, err := p.parseType(c2, d+1)
			if err != nil {
				return nil, c, err
			}
			prefixes := map[byte]string{
				'V': "vtable for ",
				'T': "VTT for ",
				'I': "typeinfo for ",
				'S': "typeinfo name for ",
			}
			return &SpecialName{Prefix: prefixes[k], Target: t}, rest, nil
		case 'C':
			complete, rest, err := p.parseType(c2, d+1)
			if err != nil {
				return nil, c, err
			}
			off, neg, rest, err := p.parseNumberValue(rest)
			if err != nil {
				return nil, c, err
			}
			if neg {
				off = -off
			}
			rest, err = p.expect("special-name", rest, '_')
			if err != nil {
				return nil, c, err
			}
			base, rest, err := p.parseType(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return &CtorVtable{Complete: complete, Offset: off, Base: base}, rest, nil
		case 'W', 'H':
			n, _, rest, err := p.parseName(c2, d+1)
			if err != nil {
				return nil, c, err
			}
			prefix := "thread-local wrapper routine for "
			if k == 'H' {
				prefix = "thread-local initialization routine for "
			}
			return &SpecialName{Prefix: prefix, Target: n}, rest, nil
		case 'h', 'v':
			rest, err := p.parseCallOffset(c1)
			if err != nil {
				return nil, c, err
			}
			target, rest, err := p.parseEncoding(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return &Thunk{Virtual: k == 'v', Target: target}, rest, nil
		case 'c':
			rest, err := p.parseCallOffset(c2)
			if err != nil {
				return nil, c, err
			}
			rest, err = p.parseCallOffset(rest)
			if err != nil {
				return nil, c, err
			}
			target, rest, err := p.parseEncoding(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return &Thunk{Covariant: true, Target: target}, rest, nil
		}
		return nil, c, parseErr("special-name", c.Offset(), ErrUnexpectedToken)

	case 'G':
		switch k {
		case 'V':
			n, _, rest, err := p.parseName(c2, d+1)
			if err != nil {
				return nil, c, err
			}
			return &SpecialName{Prefix: "guard variable for ", Target: n}, rest, nil
		case 'R':
			n, _, rest, err := p.parseName(c2, d+1)
			if err != nil {
				return nil, c, err
			}
			num := 0
			if b, ok := rest.Peek(); ok {
				if b == '_' {
					rest, _ = rest.Advance(1)
				} else if isSeqDigit(b) {
					seq, r2, err := p.parseSeqID(rest)
					if err != nil {
						return nil, c, err
					}
					rest, err = p.expect("special-name", r2, '_')
					if err != nil {
						return nil, c, err
					}
					num = seq + 1
				}
			}
			return &RefTemporary{Name: n, Num: num}, rest, nil
		}
		return nil, c, parseErr("special-name", c.Offset(), ErrUnexpectedToken)
	}
	return nil, c, parseErr("special-name", c.Offset(), ErrUnexpectedToken)
}

// <call-offset> ::= h <nv-offset> _
//               ::= v <v-offset> _ <number> _
// The leading h/v is consumed here. Offsets only select the thunk flavor
// in text form, so their values are validated and discarded.
func (p *parser) parseCallOffset(c cursor.Cursor) (cursor.Cursor, error) {
	b, rest, err := p.next("call-offset", c)
	if err != nil {
		return c, err
	}
	switch b {
	case 'h':
		_, _, rest, err = p.parseNumberValue(rest)
		if err != nil {
			return c, err
		}
		return p.expect("call-offset", rest, '_')
	case 'v':
		_, _, rest, err = p.parseNumberValue(rest)
		if err != nil {
			return c, err
		}
		rest, err = p.expect("call-offset", rest, '_')
		if err != nil {
			return c, err
		}
		_, _, rest, err = p.parseNumberValue(rest)
		if err != nil {
			return c, err
		}
		return p.expect("call-offset", rest, '_')
	}
	return c, parseErr("call-offset", c.Offset(), ErrUnexpectedToken)
}

// <name> ::= <nested-name>
//        ::= <unscoped-name>
//        ::= <unscoped-template-name> <template-args>
//        ::= <local-name>
func (p *parser) parseName(c cursor.Cursor, d int) (Node, nameInfo, cursor.Cursor, error) {
	var info nameInfo
	if err := p.guard("name", c, d); err != nil {
		return nil, info, c, err
	}
	b, ok := c.Peek()
	if !ok {
		return nil, info, c, parseErr("name", c.Offset(), ErrUnexpectedEnd)
	}

	switch {
	case b == 'N':
		return p.parseNestedName(c, d+1)
	case b == 'Z':
		return p.parseLocalName(c, d+1)
	case b == 'S' && c.HasPrefix("St"):
		// ::std::name, possibly a template.
		rest, _ := c.Advance(2)
		uq, rest, err := p.parseUnqualifiedName(rest, nil, d+1)
		if err != nil {
			return nil, info, c, err
		}
		var n Node = &Qualified{Scope: stdName(), Name: uq}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			p.register(n)
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, info, c, err
			}
			info.template = true
			info.conv = isConversionName(uq)
			return &Template{Base: n, Args: args}, info, r2, nil
		}
		return n, info, rest, nil
	case b == 'S':
		sub, rest, err := p.parseSubstitution(c)
		if err != nil {
			return nil, info, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, info, c, err
			}
			info.template = true
			return &Template{Base: sub, Args: args}, info, r2, nil
		}
		return sub, info, rest, nil
	default:
		uq, rest, err := p.parseUnqualifiedName(c, nil, d+1)
		if err != nil {
			return nil, info, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			// <unscoped-template-name> is substitutable.
			p.register(uq)
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, info, c, err
			}
			info.template = true
			info.conv = isConversionName(uq)
			return &Template{Base: uq, Args: args}, info, r2, nil
		}
		return uq, info, rest, nil
	}
}

// <nested-name> ::= N [<CV-qualifiers>] [<ref-qualifier>] <prefix> <unqualified-name> E
//               ::= N [<CV-qualifiers>] [<ref-qualifier>] <template-prefix> <template-args> E
// Every prefix built along the way is a substitution candidate; the full
// nested name is not.
func (p *parser) parseNestedName(c cursor.Cursor, d int) (Node, nameInfo, cursor.Cursor, error) {
	var info nameInfo
	if err := p.guard("nested-name", c, d); err != nil {
		return nil, info, c, err
	}
	rest, err := p.expect("nested-name", c, 'N')
	if err != nil {
		return nil, info, c, err
	}
	info.quals, rest = parseCVQualifiers(rest)
	if b, ok := rest.Peek(); ok {
		switch b {
		case 'R':
			info.refQual = RefQualLValue
			rest, _ = rest.Advance(1)
		case 'O':
			info.refQual = RefQualRValue
			rest, _ = rest.Advance(1)
		}
	}

	var prefix Node
	prefixIsStd := false
	for {
		b, ok := rest.Peek()
		if !ok {
			return nil, info, c, parseErr("nested-name", rest.Offset(), ErrUnexpectedEnd)
		}
		if b == 'E' {
			if prefix == nil {
				return nil, info, c, parseErr("nested-name", rest.Offset(), ErrUnexpectedToken)
			}
			rest, _ = rest.Advance(1)
			return prefix, info, rest, nil
		}

		info.template = false
		info.ctorDtor = false
		info.conv = false

		var comp Node
		switch {
		case b == 'I':
			// Template arguments attach to the prefix parsed so far. The
			// template-prefix is registered before its arguments so that
			// substitutions inside the argument list can reference it.
			if prefix == nil {
				return nil, info, c, parseErr("nested-name", rest.Offset(), ErrUnexpectedToken)
			}
			p.register(prefix)
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, info, c, err
			}
			prefix = &Template{Base: prefix, Args: args}
			info.template = true
			rest = r2
			prefixIsStd = false
		case b == 'T':
			tp, r2, err := p.parseTemplateParam(rest)
			if err != nil {
				return nil, info, c, err
			}
			comp = tp
			rest = r2
		case b == 'S' && rest.HasPrefix("St"):
			rest, _ = rest.Advance(2)
			comp = stdName()
			prefixIsStd = prefix == nil
		case b == 'S':
			sub, r2, err := p.parseSubstitution(rest)
			if err != nil {
				return nil, info, c, err
			}
			comp = sub
			rest = r2
		case b == 'D' && !nextIsDtor(rest):
			// Decltype can open a prefix: decltype(expr)::name.
			dt, r2, err := p.parseDecltype(rest, d+1)
			if err != nil {
				return nil, info, c, err
			}
			comp = dt
			rest = r2
		default:
			uq, r2, err := p.parseUnqualifiedName(rest, prefix, d+1)
			if err != nil {
				return nil, info, c, err
			}
			comp = uq
			rest = r2
			switch uq.(type) {
			case *CtorDtor:
				info.ctorDtor = true
			case *ConversionOp:
				info.conv = true
			}
		}

		if comp != nil {
			if prefix == nil {
				prefix = comp
			} else {
				prefix = &Qualified{Scope: prefix, Name: comp}
				prefixIsStd = false
			}
		}

		// Register the extended prefix unless it terminates the nested
		// name (the full nested name is not a candidate), is about to be
		// registered as a template-prefix, is the bare std shorthand, or
		// is itself a lone back-reference already in the table.
		if nb, ok := rest.Peek(); ok && nb != 'E' && nb != 'I' &&
			!prefixIsStd && !isBareSubstitution(prefix) {
			p.register(prefix)
		}
	}
}

// isBareSubstitution reports whether n is a lone back-reference, which is
// already in the table and must not be re-registered.
func isBareSubstitution(n Node) bool {
	_, ok := n.(*Substitution)
	return ok
}

// nextIsDtor reports whether the cursor sits on a D-prefixed dtor name
// rather than a D-prefixed type or decltype.
func nextIsDtor(c cursor.Cursor) bool {
	b, ok := c.PeekAt(1)
	if !ok {
		return false
	}
	switch b {
	case '0', '1', '2', '4', '5':
		return true
	}
	return false
}

// <local-name> ::= Z <function encoding> E <entity name> [<discriminator>]
//              ::= Z <function encoding> E s [<discriminator>]
// The entity's name info is the caller's: a const lambda body mangled as a
// local entity still carries CV qualifiers for the outer encoding.
func (p *parser) parseLocalName(c cursor.Cursor, d int) (Node, nameInfo, cursor.Cursor, error) {
	var info nameInfo
	if err := p.guard("local-name", c, d); err != nil {
		return nil, info, c, err
	}
	rest, err := p.expect("local-name", c, 'Z')
	if err != nil {
		return nil, info, c, err
	}
	fn, rest, err := p.parseEncoding(rest, d+1)
	if err != nil {
		return nil, info, c, err
	}
	rest, err = p.expect("local-name", rest, 'E')
	if err != nil {
		return nil, info, c, err
	}

	ln := &LocalName{Function: fn, Discriminator: -1}
	if b, ok := rest.Peek(); ok && b == 's' {
		rest, _ = rest.Advance(1)
		ln.StringLiteral = true
	} else {
		entity, entityInfo, r2, err := p.parseName(rest, d+1)
		if err != nil {
			return nil, info, c, err
		}
		info = entityInfo
		ln.Entity = entity
		rest = r2
	}

	// <discriminator> ::= _ <digit> | __ <number> _
	if b, ok := rest.Peek(); ok && b == '_' {
		if b2, ok := rest.PeekAt(1); ok && b2 == '_' {
			r2, _ := rest.Advance(2)
			n, r3, err := p.parseDecimal(r2, true)
			if err == nil {
				if r4, err := p.expect("discriminator", r3, '_'); err == nil {
					ln.Discriminator = n
					rest = r4
				}
			}
		} else if b2, ok := rest.PeekAt(1); ok && b2 >= '0' && b2 <= '9' {
			r2, _ := rest.Advance(2)
			ln.Discriminator = int(b2 - '0')
			rest = r2
		}
	}
	return ln, info, rest, nil
}

// <unqualified-name> ::= <operator-name>
//                    ::= <ctor-dtor-name>
//                    ::= [L] <source-name> <abi-tags>*
//                    ::= <unnamed-type-name>
func (p *parser) parseUnqualifiedName(c cursor.Cursor, scope Node, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("unqualified-name", c, d); err != nil {
		return nil, c, err
	}
	b, ok := c.Peek()
	if !ok {
		return nil, c, parseErr("unqualified-name", c.Offset(), ErrUnexpectedEnd)
	}

	// Internal-linkage names carry an L prefix that does not survive into
	// the demangled text.
	if b == 'L' {
		rest, _ := c.Advance(1)
		return p.parseUnqualifiedName(rest, scope, d+1)
	}

	switch {
	case b >= '0' && b <= '9':
		return p.parseSourceName(c)

	case b == 'C':
		v, ok := c.PeekAt(1)
		if !ok {
			return nil, c, parseErr("ctor-name", c.Offset(), ErrUnexpectedEnd)
		}
		if v < '1' || v > '5' {
			return nil, c, parseErr("ctor-name", c.Offset(), ErrUnexpectedToken)
		}
		if scope == nil {
			return nil, c, parseErr("ctor-name", c.Offset(), ErrUnexpectedToken)
		}
		rest, _ := c.Advance(2)
		return &CtorDtor{Class: scope, Variant: v}, rest, nil

	case b == 'D' && nextIsDtor(c):
		v, _ := c.PeekAt(1)
		if scope == nil {
			return nil, c, parseErr("dtor-name", c.Offset(), ErrUnexpectedToken)
		}
		rest, _ := c.Advance(2)
		return &CtorDtor{Class: scope, Dtor: true, Variant: v}, rest, nil

	case b == 'U':
		v, ok := c.PeekAt(1)
		if !ok {
			return nil, c, parseErr("unnamed-type-name", c.Offset(), ErrUnexpectedEnd)
		}
		switch v {
		case 't':
			rest, _ := c.Advance(2)
			num, rest, err := p.parseOptionalCount(rest)
			if err != nil {
				return nil, c, err
			}
			return &UnnamedType{Num: num}, rest, nil
		case 'l':
			return p.parseClosure(c, d+1)
		}
		return nil, c, parseErr("unqualified-name", c.Offset(), ErrUnexpectedToken)

	case b >= 'a' && b <= 'z':
		return p.parseOperatorName(c, d+1)
	}
	return nil, c, parseErr("unqualified-name", c.Offset(), ErrUnexpectedToken)
}

// <operator-name> ::= <two-letter code> | cv <type> | li <source-name>
//                 ::= v <digit> <source-name>
func (p *parser) parseOperatorName(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	code, rest, err := c.Take(2)
	if err != nil {
		return nil, c, parseErr("operator-name", c.Offset(), ErrUnexpectedEnd)
	}

	switch string(code) {
	case "cv":
		t, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return &ConversionOp{Target: t}, rest, nil
	case "li":
		name, rest, err := p.parseSourceName(rest)
		if err != nil {
			return nil, c, err
		}
		return &LiteralOp{Suffix: name.(*Name).Text}, rest, nil
	}

	if code[0] == 'v' && code[1] >= '0' && code[1] <= '9' {
		name, rest, err := p.parseSourceName(rest)
		if err != nil {
			return nil, c, err
		}
		return &VendorOp{Name: name.(*Name).Text, Arity: int(code[1] - '0')}, rest, nil
	}

	if op, ok := lookupOperator(string(code)); ok {
		return &OperatorName{Op: op}, rest, nil
	}
	return nil, c, parseErr("operator-name", c.Offset(), ErrUnexpectedToken)
}

// <source-name> ::= <positive length number> <identifier>
// A leading zero would make the length ambiguous and is rejected.
func (p *parser) parseSourceName(c cursor.Cursor) (Node, cursor.Cursor, error) {
	n, rest, err := p.parseDecimal(c, false)
	if err != nil {
		return nil, c, err
	}
	ident, rest, err := rest.Take(n)
	if err != nil {
		return nil, c, parseErr("source-name", rest.Offset(), ErrUnexpectedEnd)
	}
	name := &Name{Text: string(ident)}

	// <abi-tag> ::= B <source-name>
	for rest.HasPrefix("B") {
		if b2, ok := rest.PeekAt(1); !ok || b2 < '1' || b2 > '9' {
			break
		}
		r2, _ := rest.Advance(1)
		tag, r3, err := p.parseSourceName(r2)
		if err != nil {
			return nil, c, err
		}
		name.Tags = append(name.Tags, tag.(*Name).Text)
		rest = r3
	}
	return name, rest, nil
}

// parseDecimal reads a decimal number used as a length or count. Leading
// zeros are rejected unless zeroOK permits a bare "0".
func (p *parser) parseDecimal(c cursor.Cursor, zeroOK bool) (int, cursor.Cursor, error) {
	b, ok := c.Peek()
	if !ok {
		return 0, c, parseErr("number", c.Offset(), ErrUnexpectedEnd)
	}
	if b == '0' {
		if !zeroOK {
			return 0, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
		}
		rest, _ := c.Advance(1)
		return 0, rest, nil
	}
	if b < '1' || b > '9' {
		return 0, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
	}

	var v uint64
	rest := c
	for {
		b, ok := rest.Peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		v = v*10 + uint64(b-'0')
		if v > 1<<31 {
			return 0, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
		}
		rest, _ = rest.Advance(1)
	}
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
	}
	return n, rest, nil
}

// parseNumberValue reads a <number>: an optional n sign and decimal digits.
func (p *parser) parseNumberValue(c cursor.Cursor) (int64, bool, cursor.Cursor, error) {
	neg := false
	rest := c
	if b, ok := rest.Peek(); ok && b == 'n' {
		neg = true
		rest, _ = rest.Advance(1)
	}
	b, ok := rest.Peek()
	if !ok {
		return 0, false, c, parseErr("number", rest.Offset(), ErrUnexpectedEnd)
	}
	if b < '0' || b > '9' {
		return 0, false, c, parseErr("number", rest.Offset(), ErrUnexpectedToken)
	}
	var v uint64
	for {
		b, ok := rest.Peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		v = v*10 + uint64(b-'0')
		if v > 1<<31 {
			return 0, false, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
		}
		rest, _ = rest.Advance(1)
	}
	n, err := safecast.Conv[int64](v)
	if err != nil {
		return 0, false, c, parseErr("number", c.Offset(), ErrUnexpectedToken)
	}
	return n, neg, rest, nil
}

// parseOptionalCount reads the [<number>] _ tail of Ut/Ul productions and
// returns 0 for the bare form, n+1 otherwise.
func (p *parser) parseOptionalCount(c cursor.Cursor) (int, cursor.Cursor, error) {
	b, ok := c.Peek()
	if !ok {
		return 0, c, parseErr("count", c.Offset(), ErrUnexpectedEnd)
	}
	if b == '_' {
		rest, _ := c.Advance(1)
		return 0, rest, nil
	}
	n, rest, err := p.parseDecimal(c, true)
	if err != nil {
		return 0, c, err
	}
	rest, err = p.expect("count", rest, '_')
	if err != nil {
		return 0, c, err
	}
	return n + 1, rest, nil
}

// <closure-type-name> ::= Ul <lambda-sig> E [<number>] _
func (p *parser) parseClosure(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	rest, _ := c.Advance(2) // Ul
	var params []Node
	for {
		b, ok := rest.Peek()
		if !ok {
			return nil, c, parseErr("closure", rest.Offset(), ErrUnexpectedEnd)
		}
		if b == 'E' {
			rest, _ = rest.Advance(1)
			break
		}
		t, r2, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		params = append(params, t)
		rest = r2
	}
	num, rest, err := p.parseOptionalCount(rest)
	if err != nil {
		return nil, c, err
	}
	return &Closure{Params: params, Num: num}, rest, nil
}

// <substitution> ::= S_ | S <seq-id> _ | St | Sa | Sb | Ss | Si | So | Sd
func (p *parser) parseSubstitution(c cursor.Cursor) (Node, cursor.Cursor, error) {
	rest, err := p.expect("substitution", c, 'S')
	if err != nil {
		return nil, c, err
	}
	b, ok := rest.Peek()
	if !ok {
		return nil, c, parseErr("substitution", rest.Offset(), ErrUnexpectedEnd)
	}

	switch b {
	case '_':
		rest, _ = rest.Advance(1)
		n, err := p.backref(c, 0)
		return n, rest, err
	case 't':
		rest, _ = rest.Advance(1)
		return stdName(), rest, nil
	case 'a':
		rest, _ = rest.Advance(1)
		return stdQualified("allocator"), rest, nil
	case 'b':
		rest, _ = rest.Advance(1)
		return stdQualified("basic_string"), rest, nil
	case 's':
		rest, _ = rest.Advance(1)
		return stdQualified("string"), rest, nil
	case 'i':
		rest, _ = rest.Advance(1)
		return stdQualified("istream"), rest, nil
	case 'o':
		rest, _ = rest.Advance(1)
		return stdQualified("ostream"), rest, nil
	case 'd':
		rest, _ = rest.Advance(1)
		return stdQualified("iostream"), rest, nil
	}

	if !isSeqDigit(b) {
		return nil, c, parseErr("substitution", rest.Offset(), ErrUnexpectedToken)
	}
	seq, rest, err := p.parseSeqID(rest)
	if err != nil {
		return nil, c, err
	}
	rest, err = p.expect("substitution", rest, '_')
	if err != nil {
		return nil, c, err
	}
	n, err := p.backref(c, seq+1)
	return n, rest, err
}

// backref validates that a substitution index resolves to an entry that
// already exists and returns the indirection node. The table entry itself
// is never copied into the tree.
func (p *parser) backref(c cursor.Cursor, index int) (Node, error) {
	if _, err := p.subs.Get(index); err != nil {
		return nil, parseErr("substitution", c.Offset(), ErrInvalidBackref)
	}
	return &Substitution{Index: index}, nil
}

func isSeqDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z')
}

// <seq-id> is a base-36 number using digits and uppercase letters.
func (p *parser) parseSeqID(c cursor.Cursor) (int, cursor.Cursor, error) {
	v := 0
	rest := c
	n := 0
	for {
		b, ok := rest.Peek()
		if !ok || !isSeqDigit(b) {
			break
		}
		switch {
		case b >= '0' && b <= '9':
			v = v*36 + int(b-'0')
		default:
			v = v*36 + int(b-'A') + 10
		}
		if v < 0 || v > 1<<24 {
			return 0, c, parseErr("seq-id", c.Offset(), ErrInvalidBackref)
		}
		rest, _ = rest.Advance(1)
		n++
	}
	if n == 0 {
		return 0, c, parseErr("seq-id", c.Offset(), ErrUnexpectedToken)
	}
	return v, rest, nil
}

func stdName() Node {
	return &Name{Text: "std"}
}

func stdQualified(name string) Node {
	return &Qualified{Scope: stdName(), Name: &Name{Text: name}}
}

func isConversionName(n Node) bool {
	_, ok := n.(*ConversionOp)
	return ok
}

// <template-args> ::= I <template-arg>+ E
func (p *parser) parseTemplateArgs(c cursor.Cursor, d int) (*TemplateArgs, cursor.Cursor, error) {
	if err := p.guard("template-args", c, d); err != nil {
		return nil, c, err
	}
	rest, err := p.expect("template-args", c, 'I')
	if err != nil {
		return nil, c, err
	}
	args := &TemplateArgs{}
	for {
		b, ok := rest.Peek()
		if !ok {
			return nil, c, parseErr("template-args", rest.Offset(), ErrUnexpectedEnd)
		}
		if b == 'E' {
			if len(args.Args) == 0 {
				return nil, c, parseErr("template-args", rest.Offset(), ErrUnexpectedToken)
			}
			rest, _ = rest.Advance(1)
			return args, rest, nil
		}
		arg, r2, err := p.parseTemplateArg(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		args.Args = append(args.Args, arg)
		rest = r2
	}
}

// <template-arg> ::= <type> | X <expression> E | <expr-primary> | J <template-arg>* E
func (p *parser) parseTemplateArg(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("template-arg", c, d); err != nil {
		return nil, c, err
	}
	b, ok := c.Peek()
	if !ok {
		return nil, c, parseErr("template-arg", c.Offset(), ErrUnexpectedEnd)
	}
	switch b {
	case 'X':
		rest, _ := c.Advance(1)
		e, rest, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		rest, err = p.expect("template-arg", rest, 'E')
		if err != nil {
			return nil, c, err
		}
		return e, rest, nil
	case 'L':
		return p.parseExprPrimary(c, d+1)
	case 'J':
		rest, _ := c.Advance(1)
		pack := &ArgPack{}
		for {
			b, ok := rest.Peek()
			if !ok {
				return nil, c, parseErr("template-arg", rest.Offset(), ErrUnexpectedEnd)
			}
			if b == 'E' {
				rest, _ = rest.Advance(1)
				return pack, rest, nil
			}
			arg, r2, err := p.parseTemplateArg(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			pack.Args = append(pack.Args, arg)
			rest = r2
		}
	}
	return p.parseType(c, d+1)
}

// parseCVQualifiers reads [r] [V] [K] in any combination plus vendor
// extended U qualifiers.
func parseCVQualifiers(c cursor.Cursor) (Qualifiers, cursor.Cursor) {
	var q Qualifiers
	rest := c
	for {
		b, ok := rest.Peek()
		if !ok {
			return q, rest
		}
		switch b {
		case 'r':
			q.Restrict = true
			rest, _ = rest.Advance(1)
		case 'V':
			q.Volatile = true
			rest, _ = rest.Advance(1)
		case 'K':
			q.Const = true
			rest, _ = rest.Advance(1)
		default:
			return q, rest
		}
	}
}

var builtinTypes = map[byte]string{
	'v': "void",
	'w': "wchar_t",
	'b': "bool",
	'c': "char",
	'a': "signed char",
	'h': "unsigned char",
	's': "short",
	't': "unsigned short",
	'i': "int",
	'j': "unsigned int",
	'l': "long",
	'm': "unsigned long",
	'x': "long long",
	'y': "unsigned long long",
	'n': "__int128",
	'o': "unsigned __int128",
	'f': "float",
	'd': "double",
	'e': "long double",
	'g': "__float128",
	'z': "...",
}

var builtinDTypes = map[byte]string{
	'd': "decimal64",
	'e': "decimal128",
	'f': "decimal32",
	'h': "half",
	'i': "char32_t",
	's': "char16_t",
	'u': "char8_t",
	'a': "auto",
	'c': "decltype(auto)",
	'n': "std::nullptr_t",
}

// <type> is the central mutually recursive production. Substitutable
// variants register themselves immediately after they are confirmed.
func (p *parser) parseType(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	if err := p.guard("type", c, d); err != nil {
		return nil, c, err
	}
	b, ok := c.Peek()
	if !ok {
		return nil, c, parseErr("type", c.Offset(), ErrUnexpectedEnd)
	}

	switch b {
	case 'r', 'V', 'K':
		quals, rest := parseCVQualifiers(c)
		inner, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(&QualifiedType{Quals: quals, Type: inner}), rest, nil

	case 'U':
		rest, _ := c.Advance(1)
		name, rest, err := p.parseSourceName(rest)
		if err != nil {
			return nil, c, err
		}
		inner, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		q := Qualifiers{Vendor: []string{name.(*Name).Text}}
		return p.register(&QualifiedType{Quals: q, Type: inner}), rest, nil

	case 'P':
		rest, _ := c.Advance(1)
		inner, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(&PointerType{Pointee: inner}), rest, nil

	case 'R', 'O':
		rest, _ := c.Advance(1)
		inner, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(&ReferenceType{Pointee: inner, RValue: b == 'O'}), rest, nil

	case 'C', 'G':
		rest, _ := c.Advance(1)
		inner, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(&ComplexType{Base: inner, Imaginary: b == 'G'}), rest, nil

	case 'F':
		return p.parseFunctionType(c, d+1)

	case 'A':
		return p.parseArrayType(c, d+1)

	case 'M':
		rest, _ := c.Advance(1)
		class, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		member, rest, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(&PtrToMemberType{Class: class, Member: member}), rest, nil

	case 'T':
		if v, ok := c.PeekAt(1); ok {
			switch v {
			case 's', 'u', 'e':
				keywords := map[byte]string{'s': "struct", 'u': "union", 'e': "enum"}
				rest, _ := c.Advance(2)
				name, _, rest, err := p.parseName(rest, d+1)
				if err != nil {
					return nil, c, err
				}
				return p.register(&ElaboratedType{Keyword: keywords[v], Name: name}), rest, nil
			}
		}
		tp, rest, err := p.parseTemplateParam(c)
		if err != nil {
			return nil, c, err
		}
		// A template parameter used as a type may itself take arguments
		// (template template parameters).
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			p.register(tp)
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return p.register(&Template{Base: tp, Args: args}), r2, nil
		}
		return p.register(tp), rest, nil

	case 'D':
		v, ok := c.PeekAt(1)
		if !ok {
			return nil, c, parseErr("type", c.Offset(), ErrUnexpectedEnd)
		}
		if name, ok := builtinDTypes[v]; ok {
			rest, _ := c.Advance(2)
			return &BuiltinType{Name: name}, rest, nil
		}
		switch v {
		case 'p':
			rest, _ := c.Advance(2)
			inner, rest, err := p.parseType(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return p.register(&PackExpansion{Pattern: inner}), rest, nil
		case 'T', 't':
			dt, rest, err := p.parseDecltype(c, d+1)
			if err != nil {
				return nil, c, err
			}
			return p.register(dt), rest, nil
		}
		return nil, c, parseErr("type", c.Offset(), ErrUnexpectedToken)

	case 'u':
		rest, _ := c.Advance(1)
		name, rest, err := p.parseSourceName(rest)
		if err != nil {
			return nil, c, err
		}
		return p.register(&VendorType{Name: name.(*Name).Text}), rest, nil

	case 'S':
		// Either a back-reference (optionally instantiated) or an
		// St-prefixed class name.
		if c.HasPrefix("St") {
			name, _, rest, err := p.parseName(c, d+1)
			if err != nil {
				return nil, c, err
			}
			return p.register(name), rest, nil
		}
		sub, rest, err := p.parseSubstitution(c)
		if err != nil {
			return nil, c, err
		}
		if nb, ok := rest.Peek(); ok && nb == 'I' {
			args, r2, err := p.parseTemplateArgs(rest, d+1)
			if err != nil {
				return nil, c, err
			}
			return p.register(&Template{Base: sub, Args: args}), r2, nil
		}
		return sub, rest, nil

	case 'N', 'Z':
		name, _, rest, err := p.parseName(c, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(name), rest, nil
	}

	if name, ok := builtinTypes[b]; ok {
		rest, _ := c.Advance(1)
		return &BuiltinType{Name: name}, rest, nil
	}

	if b >= '0' && b <= '9' {
		// <class-enum-type> spelled as an unscoped (possibly template)
		// name.
		name, _, rest, err := p.parseName(c, d+1)
		if err != nil {
			return nil, c, err
		}
		return p.register(name), rest, nil
	}

	return nil, c, parseErr("type", c.Offset(), ErrUnexpectedToken)
}

// <function-type> ::= F [Y] <bare-function-type> [<ref-qualifier>] E
func (p *parser) parseFunctionType(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	rest, err := p.expect("function-type", c, 'F')
	if err != nil {
		return nil, c, err
	}
	ft := &FunctionType{}
	if b, ok := rest.Peek(); ok && b == 'Y' {
		ft.ExternC = true
		rest, _ = rest.Advance(1)
	}

	ret, rest, err := p.parseType(rest, d+1)
	if err != nil {
		return nil, c, err
	}
	ft.Return = ret

	for {
		b, ok := rest.Peek()
		if !ok {
			return nil, c, parseErr("function-type", rest.Offset(), ErrUnexpectedEnd)
		}
		if b == 'E' {
			rest, _ = rest.Advance(1)
			break
		}
		if b == 'R' || b == 'O' {
			if nb, ok := rest.PeekAt(1); ok && nb == 'E' {
				if b == 'R' {
					ft.RefQual = RefQualLValue
				} else {
					ft.RefQual = RefQualRValue
				}
				rest, _ = rest.Advance(2)
				break
			}
		}
		t, r2, err := p.parseType(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		ft.Params = append(ft.Params, t)
		rest = r2
	}
	return p.register(ft), rest, nil
}

// <array-type> ::= A <positive dimension number> _ <element type>
//              ::= A [<dimension expression>] _ <element type>
func (p *parser) parseArrayType(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	rest, err := p.expect("array-type", c, 'A')
	if err != nil {
		return nil, c, err
	}
	at := &ArrayType{}

	b, ok := rest.Peek()
	if !ok {
		return nil, c, parseErr("array-type", rest.Offset(), ErrUnexpectedEnd)
	}
	switch {
	case b == '_':
		// Unbounded.
	case b >= '0' && b <= '9':
		n, neg, r2, err := p.parseNumberValue(rest)
		if err != nil || neg {
			return nil, c, parseErr("array-type", rest.Offset(), ErrUnexpectedToken)
		}
		at.Size = &Literal{Type: &BuiltinType{Name: "int"}, Value: strconv.FormatInt(n, 10)}
		rest = r2
	default:
		e, r2, err := p.parseExpression(rest, d+1)
		if err != nil {
			return nil, c, err
		}
		at.Size = e
		rest = r2
	}
	rest, err = p.expect("array-type", rest, '_')
	if err != nil {
		return nil, c, err
	}
	elem, rest, err := p.parseType(rest, d+1)
	if err != nil {
		return nil, c, err
	}
	at.Element = elem
	return p.register(at), rest, nil
}

// <template-param> ::= T_ | T <parameter-2 non-negative number> _
func (p *parser) parseTemplateParam(c cursor.Cursor) (Node, cursor.Cursor, error) {
	rest, err := p.expect("template-param", c, 'T')
	if err != nil {
		return nil, c, err
	}
	b, ok := rest.Peek()
	if !ok {
		return nil, c, parseErr("template-param", rest.Offset(), ErrUnexpectedEnd)
	}
	if b == '_' {
		rest, _ = rest.Advance(1)
		return &TemplateParam{Index: 0}, rest, nil
	}
	n, rest, err := p.parseDecimal(rest, true)
	if err != nil {
		return nil, c, err
	}
	rest, err = p.expect("template-param", rest, '_')
	if err != nil {
		return nil, c, err
	}
	return &TemplateParam{Index: n + 1}, rest, nil
}

// <decltype> ::= Dt <expression> E | DT <expression> E
func (p *parser) parseDecltype(c cursor.Cursor, d int) (Node, cursor.Cursor, error) {
	rest, err := p.expect("decltype", c, 'D')
	if err != nil {
		return nil, c, err
	}
	b, rest, err := p.next("decltype", rest)
	if err != nil {
		return nil, c, err
	}
	if b != 't' && b != 'T' {
		return nil, c, parseErr("decltype", c.Offset(), ErrUnexpectedToken)
	}
	e, rest, err := p.parseExpression(rest, d+1)
	if err != nil {
		return nil, c, err
	}
	rest, err = p.expect("decltype", rest, 'E')
	if err != nil {
		return nil, c, err
	}
	return &Decltype{Expr: e, IdExpr: b == 't'}, rest, nil
}
