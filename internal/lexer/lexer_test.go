package lexer

import "testing"

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex %q: %v", src, err)
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks
}

func TestLexKeywordsAreCaseInsensitive(t *testing.T) {
	toks := tokenize(t, "MATCH match Match")
	for i, tok := range toks[:3] {
		if tok.Kind != KEYWORD || tok.Lower != "match" {
			t.Fatalf("token %d: expected keyword match, got %+v", i, tok)
		}
	}
}

func TestLexIdentifierNotKeyword(t *testing.T) {
	toks := tokenize(t, "n")
	if toks[0].Kind != IDENT {
		t.Fatalf("expected ident, got %+v", toks[0])
	}
}

func TestLexIntegerAndFloat(t *testing.T) {
	toks := tokenize(t, "42 3.14")
	if toks[0].Kind != INT || toks[0].IValue != 42 {
		t.Fatalf("expected int 42, got %+v", toks[0])
	}
	if toks[1].Kind != FLOAT || toks[1].FValue != 3.14 {
		t.Fatalf("expected float 3.14, got %+v", toks[1])
	}
}

func TestLexString(t *testing.T) {
	toks := tokenize(t, `"hello world"`)
	if toks[0].Kind != STRING || toks[0].Text != "hello world" {
		t.Fatalf("expected string hello world, got %+v", toks[0])
	}
}

func TestLexParam(t *testing.T) {
	toks := tokenize(t, "$name")
	if toks[0].Kind != PARAM || toks[0].Text != "name" {
		t.Fatalf("expected param name, got %+v", toks[0])
	}
}

func TestLexMultiCharOperators(t *testing.T) {
	toks := tokenize(t, "-> <- <> <= >= =~")
	kinds := []Kind{ARROW_R, ARROW_L, NEQ, LE, GE, REGEX_EQ}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected kind %v, got %+v", i, k, toks[i])
		}
	}
}

func TestLexSkipsLineComment(t *testing.T) {
	toks := tokenize(t, "RETURN 1 // trailing comment\n")
	if toks[0].Lower != "return" || toks[1].Kind != INT {
		t.Fatalf("expected RETURN 1, got %+v", toks[:2])
	}
}

func TestLexTracksLineAndColumn(t *testing.T) {
	toks := tokenize(t, "MATCH\nRETURN")
	if toks[0].Line != 1 {
		t.Fatalf("expected first token on line 1, got %d", toks[0].Line)
	}
	if toks[1].Line != 2 {
		t.Fatalf("expected second token on line 2, got %d", toks[1].Line)
	}
}
