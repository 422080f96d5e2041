// Package parser implements the hand-rolled recursive-descent parser for
// the query language (§4.5). A struct-tag grammar library (the kind this
// codebase's dependency pack offers, e.g. alecthomas/participle) cannot
// express Cypher's infix-precedence expression grammar, list slicing, or
// pattern comprehensions without fighting its declarative model harder
// than writing the descent by hand — see DESIGN.md for the full
// justification.
package parser

import (
	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/lexer"
)

// Parser consumes a token stream with one token of lookahead.
type Parser struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// Parse lexes and parses src into a Statement AST.
func Parse(src string) (*ast.Statement, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.primeToken(); err != nil {
		return nil, err
	}
	if err := p.primeToken(); err != nil {
		return nil, err
	}
	return p.parseStatement()
}

func (p *Parser) primeToken() error {
	p.cur = p.peek
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = t
	return nil
}

func (p *Parser) advance() error { return p.primeToken() }

func (p *Parser) atKeyword(word string) bool {
	return p.cur.Kind == lexer.KEYWORD && p.cur.Lower == word
}

func (p *Parser) peekKeyword(word string) bool {
	return p.peek.Kind == lexer.KEYWORD && p.peek.Lower == word
}

func (p *Parser) expectKeyword(word string) error {
	if !p.atKeyword(word) {
		return p.errorf("expected %q, got %s", word, p.cur)
	}
	return p.advance()
}

func (p *Parser) atKind(k lexer.Kind) bool { return p.cur.Kind == k }

func (p *Parser) expectKind(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errorf("expected %s, got %s", what, p.cur)
	}
	t := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return t, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return gerrors.NewParseError(p.cur.Line, p.cur.Col, format, args...)
}

// parseStatement parses a full UNION-joined statement.
func (p *Parser) parseStatement() (*ast.Statement, error) {
	stmt := &ast.Statement{}
	first, err := p.parseSingleQuery()
	if err != nil {
		return nil, err
	}
	stmt.Parts = append(stmt.Parts, first)
	for p.atKeyword("union") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		all := false
		if p.atKeyword("all") {
			all = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		next, err := p.parseSingleQuery()
		if err != nil {
			return nil, err
		}
		stmt.Parts = append(stmt.Parts, next)
		stmt.UnionAll = append(stmt.UnionAll, all)
	}
	if p.cur.Kind == lexer.SEMICOLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind != lexer.EOF {
		return nil, p.errorf("unexpected trailing input near %s", p.cur)
	}
	return stmt, nil
}

func (p *Parser) parseSingleQuery() (*ast.SingleQuery, error) {
	q := &ast.SingleQuery{}
	for {
		if p.cur.Kind == lexer.EOF || p.cur.Kind == lexer.SEMICOLON || p.atKeyword("union") {
			break
		}
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		q.Clauses = append(q.Clauses, clause)
	}
	return q, nil
}

func (p *Parser) parseClause() (ast.Clause, error) {
	switch {
	case p.atKeyword("optional"):
		return p.parseMatch()
	case p.atKeyword("match"):
		return p.parseMatch()
	case p.atKeyword("create"):
		return p.parseCreateOrIndex()
	case p.atKeyword("merge"):
		return p.parseMerge()
	case p.atKeyword("set"):
		return p.parseSet()
	case p.atKeyword("remove"):
		return p.parseRemove()
	case p.atKeyword("detach") || p.atKeyword("delete"):
		return p.parseDelete()
	case p.atKeyword("with"):
		return p.parseWith()
	case p.atKeyword("unwind"):
		return p.parseUnwind()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("call"):
		return p.parseCall()
	case p.atKeyword("show"):
		return p.parseShow()
	case p.atKeyword("drop"):
		return p.parseDrop()
	default:
		return nil, p.errorf("unexpected token %s at start of clause", p.cur)
	}
}

func (p *Parser) parseMatch() (ast.Clause, error) {
	optional := false
	if p.atKeyword("optional") {
		optional = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	clause := &ast.MatchClause{Optional: optional, Pattern: pattern}
	if p.atKeyword("where") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		clause.Where = where
	}
	return clause, nil
}
