package parser

import (
	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/lexer"
)

func (p *Parser) parsePattern() (*ast.Pattern, error) {
	pat := &ast.Pattern{}
	for {
		path, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		pat.Paths = append(pat.Paths, path)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return pat, nil
}

func (p *Parser) parsePathPattern() (*ast.PathPattern, error) {
	path := &ast.PathPattern{}

	// named path: `var = (a)-[]->(b)` or shortestPath(...) forms
	if p.cur.Kind == lexer.IDENT && p.peek.Kind == lexer.EQ {
		path.Name = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind == lexer.IDENT && (p.cur.Lower == "shortestpath" || p.cur.Lower == "allshortestpaths") && p.peek.Kind == lexer.LPAREN {
		path.ShortestPath = p.cur.Lower == "shortestpath"
		path.AllShortest = p.cur.Lower == "allshortestpaths"
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil { // consume LPAREN
			return nil, err
		}
		if err := p.parsePathChain(path); err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return path, nil
	}

	if err := p.parsePathChain(path); err != nil {
		return nil, err
	}
	return path, nil
}

func (p *Parser) parsePathChain(path *ast.PathPattern) error {
	first, err := p.parseNodePattern()
	if err != nil {
		return err
	}
	path.Nodes = append(path.Nodes, first)
	for p.cur.Kind == lexer.DASH || p.cur.Kind == lexer.ARROW_L {
		rel, err := p.parseRelPattern()
		if err != nil {
			return err
		}
		path.Rels = append(path.Rels, rel)
		n, err := p.parseNodePattern()
		if err != nil {
			return err
		}
		path.Nodes = append(path.Nodes, n)
	}
	return nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	if _, err := p.expectKind(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	n := &ast.NodePattern{}
	if p.cur.Kind == lexer.IDENT {
		n.Variable = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	for p.cur.Kind == lexer.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		label, err := p.expectKind(lexer.IDENT, "label")
		if err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, label.Text)
	}
	if p.cur.Kind == lexer.LBRACE {
		m, err := p.parseMapLiteral()
		if err != nil {
			return nil, err
		}
		n.Properties = m
	}
	if _, err := p.expectKind(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseRelPattern() (*ast.RelPattern, error) {
	rel := &ast.RelPattern{Direction: ast.DirEither}
	leftArrow := false
	if p.cur.Kind == lexer.ARROW_L {
		leftArrow = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.expectKind(lexer.DASH, "-"); err != nil {
			return nil, err
		}
	}

	if p.cur.Kind == lexer.LBRACKET {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == lexer.IDENT {
			rel.Variable = p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		for p.cur.Kind == lexer.COLON {
			if err := p.advance(); err != nil {
				return nil, err
			}
			t, err := p.expectKind(lexer.IDENT, "relationship type")
			if err != nil {
				return nil, err
			}
			rel.Types = append(rel.Types, t.Text)
			for p.cur.Kind == lexer.PIPE {
				if err := p.advance(); err != nil {
					return nil, err
				}
				if p.cur.Kind == lexer.COLON {
					if err := p.advance(); err != nil {
						return nil, err
					}
				}
				t2, err := p.expectKind(lexer.IDENT, "relationship type")
				if err != nil {
					return nil, err
				}
				rel.Types = append(rel.Types, t2.Text)
			}
		}
		if p.cur.Kind == lexer.STAR {
			rel.VarLength = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Kind == lexer.INT {
				rel.MinHops = int(p.cur.IValue)
				rel.HasMinHops = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if p.cur.Kind == lexer.DOTDOT {
				if err := p.advance(); err != nil {
					return nil, err
				}
				if p.cur.Kind == lexer.INT {
					rel.MaxHops = int(p.cur.IValue)
					rel.HasMaxHops = true
					if err := p.advance(); err != nil {
						return nil, err
					}
				}
			} else if rel.HasMinHops {
				rel.MaxHops = rel.MinHops
				rel.HasMaxHops = true
			}
		}
		if p.cur.Kind == lexer.LBRACE {
			m, err := p.parseMapLiteral()
			if err != nil {
				return nil, err
			}
			rel.Properties = m
		}
		if _, err := p.expectKind(lexer.RBRACKET, "]"); err != nil {
			return nil, err
		}
	}

	rightArrow := false
	if p.cur.Kind == lexer.ARROW_R {
		rightArrow = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.expectKind(lexer.DASH, "-"); err != nil {
			return nil, err
		}
	}

	switch {
	case leftArrow && !rightArrow:
		rel.Direction = ast.DirLeft
	case rightArrow && !leftArrow:
		rel.Direction = ast.DirRight
	default:
		rel.Direction = ast.DirEither
	}
	return rel, nil
}

func (p *Parser) parseMapLiteral() (*ast.MapLiteral, error) {
	if _, err := p.expectKind(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	m := &ast.MapLiteral{}
	for p.cur.Kind != lexer.RBRACE {
		key, err := p.expectKind(lexer.IDENT, "map key")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lexer.COLON, ":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, &ast.MapEntry{Key: key.Text, Value: val})
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expectKind(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return m, nil
}
