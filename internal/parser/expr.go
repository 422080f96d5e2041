package parser

import (
	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/lexer"
)

// parseExpr is the entry point of the precedence-climbing expression
// grammar (§4.5): OR > XOR > AND > NOT > comparison > additive >
// multiplicative > power > unary minus > postfix > primary.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("xor") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "xor", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.atKeyword("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "not", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur.Kind == lexer.EQ, p.cur.Kind == lexer.NEQ, p.cur.Kind == lexer.LT,
			p.cur.Kind == lexer.LE, p.cur.Kind == lexer.GT, p.cur.Kind == lexer.GE,
			p.cur.Kind == lexer.REGEX_EQ:
			op := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: op, Left: left, Right: right}
		case p.atKeyword("in"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.ListPredicate{Op: "in", Operand: left, Arg: right}
		case p.atKeyword("starts"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("with"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.ListPredicate{Op: "starts_with", Operand: left, Arg: right}
		case p.atKeyword("ends"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("with"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.ListPredicate{Op: "ends_with", Operand: left, Arg: right}
		case p.atKeyword("contains"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.ListPredicate{Op: "contains", Operand: left, Arg: right}
		case p.atKeyword("is"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			negate := false
			if p.atKeyword("not") {
				negate = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if err := p.expectKeyword("null"); err != nil {
				return nil, err
			}
			left = &ast.IsNullTest{Operand: left, Negate: negate}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.PLUS || p.cur.Kind == lexer.DASH {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.STAR || p.cur.Kind == lexer.SLASH || p.cur.Kind == lexer.PERCENT {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.CARET {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind == lexer.DASH {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "-", Operand: operand}, nil
	}
	if p.cur.Kind == lexer.PLUS {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePostfix()
}

// parsePostfix handles property access and index/slice access chained
// after a primary expression. It is also used directly to parse SET and
// REMOVE targets.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Kind {
		case lexer.DOT:
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expectKind(lexer.IDENT, "property name")
			if err != nil {
				return nil, err
			}
			expr = &ast.PropertyAccess{Target: expr, Name: name.Text}
		case lexer.LBRACKET:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Kind == lexer.DOTDOT {
				if err := p.advance(); err != nil {
					return nil, err
				}
				var to ast.Expr
				if p.cur.Kind != lexer.RBRACKET {
					to, err = p.parseExpr()
					if err != nil {
						return nil, err
					}
				}
				if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
					return nil, err
				}
				expr = &ast.SliceAccess{Target: expr, To: to}
				continue
			}
			first, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur.Kind == lexer.DOTDOT {
				if err := p.advance(); err != nil {
					return nil, err
				}
				var to ast.Expr
				if p.cur.Kind != lexer.RBRACKET {
					to, err = p.parseExpr()
					if err != nil {
						return nil, err
					}
				}
				if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
					return nil, err
				}
				expr = &ast.SliceAccess{Target: expr, From: first, To: to}
				continue
			}
			if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			expr = &ast.IndexAccess{Target: expr, Index: first}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.cur.Kind == lexer.INT:
		v := p.cur.IValue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.IntLiteral{Value: v}, nil
	case p.cur.Kind == lexer.FLOAT:
		v := p.cur.FValue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.FloatLiteral{Value: v}, nil
	case p.cur.Kind == lexer.STRING:
		v := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Value: v}, nil
	case p.cur.Kind == lexer.PARAM:
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Parameter{Name: name}, nil
	case p.atKeyword("true"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Value: true}, nil
	case p.atKeyword("false"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Value: false}, nil
	case p.atKeyword("null"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NullLiteral{}, nil
	case p.atKeyword("case"):
		return p.parseCase()
	case p.atKeyword("exists") && p.peek.Kind == lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseFunctionArgs("exists")
	case p.cur.Kind == lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.cur.Kind == lexer.LBRACKET:
		return p.parseBracketExpr()
	case p.cur.Kind == lexer.LBRACE:
		m, err := p.parseMapLiteral()
		if err != nil {
			return nil, err
		}
		return m, nil
	case p.cur.Kind == lexer.IDENT:
		return p.parseIdentExpr()
	default:
		return nil, p.errorf("unexpected token %s in expression", p.cur)
	}
}

// parseIdentExpr greedily consumes a dotted identifier chain, then
// decides between a function call (if a "(" follows) and a variable or
// property-access chain.
func (p *Parser) parseIdentExpr() (ast.Expr, error) {
	segments := []string{p.cur.Text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.DOT && p.peek.Kind == lexer.IDENT {
		if err := p.advance(); err != nil { // consume '.'
			return nil, err
		}
		segments = append(segments, p.cur.Text)
		if err := p.advance(); err != nil { // consume ident
			return nil, err
		}
	}
	if p.cur.Kind == lexer.LPAREN {
		name := segments[0]
		for _, s := range segments[1:] {
			name += "." + s
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseFunctionArgs(name)
	}
	var expr ast.Expr = &ast.Variable{Name: segments[0]}
	for _, s := range segments[1:] {
		expr = &ast.PropertyAccess{Target: expr, Name: s}
	}
	return expr, nil
}

// parseFunctionArgs parses the "(args)" portion of a call after the
// opening paren has already been consumed.
func (p *Parser) parseFunctionArgs(name string) (ast.Expr, error) {
	call := &ast.FunctionCall{Name: name}
	if p.cur.Kind == lexer.STAR {
		call.Star = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.cur.Kind != lexer.RPAREN {
		if p.atKeyword("distinct") {
			call.Distinct = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.cur.Kind == lexer.COMMA {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return call, nil
}

// parseBracketExpr parses a list literal, list comprehension, or pattern
// comprehension, all of which open with "[".
func (p *Parser) parseBracketExpr() (ast.Expr, error) {
	if _, err := p.expectKind(lexer.LBRACKET, "["); err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.RBRACKET {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ListLiteral{}, nil
	}
	if p.cur.Kind == lexer.LPAREN {
		path, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		pc := &ast.PatternComprehension{Path: path}
		if p.atKeyword("where") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			where, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pc.Where = where
		}
		if p.cur.Kind == lexer.PIPE {
			if err := p.advance(); err != nil {
				return nil, err
			}
			project, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pc.Project = project
		}
		if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
			return nil, err
		}
		return pc, nil
	}
	if p.cur.Kind == lexer.IDENT && p.peek.Kind == lexer.KEYWORD && p.peek.Lower == "in" {
		variable := p.cur.Text
		if err := p.advance(); err != nil { // consume ident
			return nil, err
		}
		if err := p.advance(); err != nil { // consume 'in'
			return nil, err
		}
		source, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lc := &ast.ListComprehension{Variable: variable, Source: source}
		if p.atKeyword("where") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			where, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lc.Where = where
		}
		if p.cur.Kind == lexer.PIPE {
			if err := p.advance(); err != nil {
				return nil, err
			}
			project, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lc.Project = project
		}
		if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
			return nil, err
		}
		return lc, nil
	}
	list := &ast.ListLiteral{}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, e)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	if err := p.expectKeyword("case"); err != nil {
		return nil, err
	}
	ce := &ast.CaseExpr{}
	if !p.atKeyword("when") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}
	for p.atKeyword("when") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, &ast.CaseWhen{Cond: cond, Then: then})
	}
	if p.atKeyword("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = elseExpr
	}
	if err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	return ce, nil
}
