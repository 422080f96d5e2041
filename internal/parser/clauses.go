package parser

import (
	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/lexer"
)

func (p *Parser) parseCreateOrIndex() (ast.Clause, error) {
	if err := p.expectKeyword("create"); err != nil {
		return nil, err
	}
	if p.atKeyword("index") {
		return p.parseCreateIndexBody("")
	}
	if p.cur.Kind == lexer.IDENT && p.cur.Lower == "index" {
		return p.parseCreateIndexBody("")
	}
	if p.atKeyword("constraint") {
		return p.parseCreateConstraintBody("")
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	return &ast.CreateClause{Pattern: pattern}, nil
}

func (p *Parser) parseCreateIndexBody(name string) (ast.Clause, error) {
	if err := p.advanceIfKeyword("index"); err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.IDENT && !p.atKeyword("on") {
		name = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("on"); err != nil {
		return nil, err
	}
	entityKind, labelOrType, err := p.parseOnTarget()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	prop, err := p.expectKind(lexer.IDENT, "property")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return &ast.CreateIndexClause{Name: name, EntityKind: entityKind, LabelOrType: labelOrType, Property: prop.Text}, nil
}

// parseOnTarget parses the `(n:Label)` target form used by CREATE
// INDEX/CONSTRAINT ON; relationship targets are not accepted, so the
// entity kind is always "node".
func (p *Parser) parseOnTarget() (entityKind, labelOrType string, err error) {
	if _, err := p.expectKind(lexer.LPAREN, "("); err != nil {
		return "", "", err
	}
	if p.cur.Kind == lexer.IDENT {
		if err := p.advance(); err != nil {
			return "", "", err
		}
	}
	if p.cur.Kind == lexer.COLON {
		if err := p.advance(); err != nil {
			return "", "", err
		}
	}
	label, err := p.expectKind(lexer.IDENT, "label")
	if err != nil {
		return "", "", err
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return "", "", err
	}
	return "node", label.Text, nil
}

func (p *Parser) advanceIfKeyword(word string) error {
	if p.atKeyword(word) || (p.cur.Kind == lexer.IDENT && p.cur.Lower == word) {
		return p.advance()
	}
	return p.errorf("expected %q, got %s", word, p.cur)
}

func (p *Parser) parseCreateConstraintBody(name string) (ast.Clause, error) {
	if err := p.expectKeyword("constraint"); err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.IDENT && !p.atKeyword("on") {
		name = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("on"); err != nil {
		return nil, err
	}
	entityKind, labelOrType, err := p.parseOnTarget()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.IDENT && p.cur.Lower == "assert" {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	kind := "existence"
	scalarType := ""
	if _, err := p.expectKind(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	prop, err := p.expectKind(lexer.IDENT, "property")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	if p.atKeyword("is") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.atKeyword("unique") {
			kind = "uniqueness"
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.atKeyword("not") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("null"); err != nil {
				return nil, err
			}
			kind = "existence"
		} else if p.cur.Kind == lexer.IDENT {
			kind = "type"
			scalarType = p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	return &ast.CreateConstraintClause{Name: name, Kind: kind, EntityKind: entityKind, LabelOrType: labelOrType, Property: prop.Text, ScalarType: scalarType}, nil
}

func (p *Parser) parseMerge() (ast.Clause, error) {
	if err := p.expectKeyword("merge"); err != nil {
		return nil, err
	}
	path, err := p.parsePathPattern()
	if err != nil {
		return nil, err
	}
	m := &ast.MergeClause{Path: path}
	for p.atKeyword("on") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		branch := "match"
		if p.atKeyword("create") {
			branch = "create"
		} else if !p.atKeyword("match") {
			return nil, p.errorf("expected CREATE or MATCH after ON, got %s", p.cur)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("set"); err != nil {
			return nil, err
		}
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		if branch == "create" {
			m.OnCreate = items
		} else {
			m.OnMatch = items
		}
	}
	return m, nil
}

func (p *Parser) parseSetItems() ([]*ast.SetItem, error) {
	var items []*ast.SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSetItem() (*ast.SetItem, error) {
	target, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		label, err := p.expectKind(lexer.IDENT, "label")
		if err != nil {
			return nil, err
		}
		return &ast.SetItem{Target: target, IsLabel: true, Label: label.Text}, nil
	}
	isAdd := false
	if p.cur.Kind == lexer.PLUS && p.peek.Kind == lexer.EQ {
		isAdd = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectKind(lexer.EQ, "="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.SetItem{Target: target, Value: val, IsAdd: isAdd}, nil
}

func (p *Parser) parseSet() (ast.Clause, error) {
	if err := p.expectKeyword("set"); err != nil {
		return nil, err
	}
	items, err := p.parseSetItems()
	if err != nil {
		return nil, err
	}
	return &ast.SetClause{Items: items}, nil
}

func (p *Parser) parseRemove() (ast.Clause, error) {
	if err := p.expectKeyword("remove"); err != nil {
		return nil, err
	}
	var items []*ast.RemoveItem
	for {
		target, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		item := &ast.RemoveItem{Target: target}
		if p.cur.Kind == lexer.COLON {
			if err := p.advance(); err != nil {
				return nil, err
			}
			label, err := p.expectKind(lexer.IDENT, "label")
			if err != nil {
				return nil, err
			}
			item.Label = label.Text
		}
		items = append(items, item)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return &ast.RemoveClause{Items: items}, nil
}

func (p *Parser) parseDelete() (ast.Clause, error) {
	detach := false
	if p.atKeyword("detach") {
		detach = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("delete"); err != nil {
		return nil, err
	}
	var items []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return &ast.DeleteClause{Detach: detach, Items: items}, nil
}

func (p *Parser) parseProjectionItems() ([]*ast.ProjectionItem, bool, error) {
	if p.cur.Kind == lexer.STAR {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	var items []*ast.ProjectionItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		item := &ast.ProjectionItem{Expr: e}
		if p.atKeyword("as") {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			alias, err := p.expectKind(lexer.IDENT, "alias")
			if err != nil {
				return nil, false, err
			}
			item.Alias = alias.Text
		}
		items = append(items, item)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			continue
		}
		break
	}
	return items, false, nil
}

func (p *Parser) parseOrderSkipLimit() (order []*ast.OrderItem, skip, limit ast.Expr, err error) {
	if p.atKeyword("order") {
		if err = p.advance(); err != nil {
			return
		}
		if err = p.expectKeyword("by"); err != nil {
			return
		}
		for {
			e, e2 := p.parseExpr()
			if e2 != nil {
				err = e2
				return
			}
			desc := false
			if p.atKeyword("desc") || p.atKeyword("descending") {
				desc = true
				if err = p.advance(); err != nil {
					return
				}
			} else if p.atKeyword("asc") || p.atKeyword("ascending") {
				if err = p.advance(); err != nil {
					return
				}
			}
			order = append(order, &ast.OrderItem{Expr: e, Descending: desc})
			if p.cur.Kind == lexer.COMMA {
				if err = p.advance(); err != nil {
					return
				}
				continue
			}
			break
		}
	}
	if p.atKeyword("skip") {
		if err = p.advance(); err != nil {
			return
		}
		skip, err = p.parseExpr()
		if err != nil {
			return
		}
	}
	if p.atKeyword("limit") {
		if err = p.advance(); err != nil {
			return
		}
		limit, err = p.parseExpr()
		if err != nil {
			return
		}
	}
	return
}

func (p *Parser) parseWith() (ast.Clause, error) {
	if err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	distinct := false
	if p.atKeyword("distinct") {
		distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	items, star, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	w := &ast.WithClause{Distinct: distinct, Items: items, Star: star}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	w.OrderBy, w.Skip, w.Limit = order, skip, limit
	if p.atKeyword("where") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		w.Where = where
	}
	return w, nil
}

func (p *Parser) parseUnwind() (ast.Clause, error) {
	if err := p.expectKeyword("unwind"); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	v, err := p.expectKind(lexer.IDENT, "variable")
	if err != nil {
		return nil, err
	}
	return &ast.UnwindClause{Expr: e, Variable: v.Text}, nil
}

func (p *Parser) parseReturn() (ast.Clause, error) {
	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	distinct := false
	if p.atKeyword("distinct") {
		distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	items, star, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	r := &ast.ReturnClause{Distinct: distinct, Items: items, Star: star}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	r.OrderBy, r.Skip, r.Limit = order, skip, limit
	return r, nil
}

func (p *Parser) parseCall() (ast.Clause, error) {
	if err := p.expectKeyword("call"); err != nil {
		return nil, err
	}
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	if _, err := p.expectKind(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	for p.cur.Kind != lexer.RPAREN {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	call := &ast.CallClause{Procedure: name, Args: args}
	if p.atKeyword("yield") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == lexer.STAR {
			call.YieldAll = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			for {
				col, err := p.expectKind(lexer.IDENT, "yield column")
				if err != nil {
					return nil, err
				}
				call.Yield = append(call.Yield, col.Text)
				if p.cur.Kind == lexer.COMMA {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
	}
	return call, nil
}

func (p *Parser) parseDottedName() (string, error) {
	name, err := p.expectKind(lexer.IDENT, "procedure name")
	if err != nil {
		return "", err
	}
	s := name.Text
	for p.cur.Kind == lexer.DOT {
		if err := p.advance(); err != nil {
			return "", err
		}
		part, err := p.expectKind(lexer.IDENT, "procedure name segment")
		if err != nil {
			return "", err
		}
		s += "." + part.Text
	}
	return s, nil
}

func (p *Parser) parseShow() (ast.Clause, error) {
	if err := p.expectKeyword("show"); err != nil {
		return nil, err
	}
	switch {
	case p.atKeyword("indexes"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ShowClause{Indexes: true}, nil
	case p.atKeyword("constraints"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ShowClause{Constraints: true}, nil
	default:
		return nil, p.errorf("expected INDEXES or CONSTRAINTS after SHOW, got %s", p.cur)
	}
}

func (p *Parser) parseDrop() (ast.Clause, error) {
	if err := p.expectKeyword("drop"); err != nil {
		return nil, err
	}
	switch {
	case p.atKeyword("index") || (p.cur.Kind == lexer.IDENT && p.cur.Lower == "index"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectKind(lexer.IDENT, "index name")
		if err != nil {
			return nil, err
		}
		return &ast.DropIndexClause{Name: name.Text}, nil
	case p.atKeyword("constraint"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectKind(lexer.IDENT, "constraint name")
		if err != nil {
			return nil, err
		}
		return &ast.DropConstraintClause{Name: name.Text}, nil
	default:
		return nil, p.errorf("expected INDEX or CONSTRAINT after DROP, got %s", p.cur)
	}
}
