// Tests the lexer by verifying a short SysY snippet tokenizes into the expected token stream.
package frontend

import "testing"

func TestLex(t *testing.T) {
	src := "const int N = 1;\nint add(int a, int b) {\n  return a + b;\n}\n"

	toks, err := lex(src)
	if err != nil {
		t.Fatalf("lex returned error: %s", err)
	}

	type want struct {
		typ tokenType
		val string
	}
	exp := []want{
		{tokKeyword, "const"}, {tokKeyword, "int"}, {tokIdent, "N"}, {tokPunct, "="}, {tokNumber, "1"}, {tokPunct, ";"},
		{tokKeyword, "int"}, {tokIdent, "add"}, {tokPunct, "("},
		{tokKeyword, "int"}, {tokIdent, "a"}, {tokPunct, ","},
		{tokKeyword, "int"}, {tokIdent, "b"}, {tokPunct, ")"}, {tokPunct, "{"},
		{tokKeyword, "return"}, {tokIdent, "a"}, {tokPunct, "+"}, {tokIdent, "b"}, {tokPunct, ";"},
		{tokPunct, "}"},
		{tokEOF, ""},
	}

	if len(toks) != len(exp) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(exp), len(toks), toks)
	}
	for i, e := range exp {
		if toks[i].typ != e.typ || (e.typ != tokEOF && toks[i].val != e.val) {
			t.Errorf("token %d: expected {%v %q}, got {%v %q}", i, e.typ, e.val, toks[i].typ, toks[i].val)
		}
	}
}

func TestLexNumberBases(t *testing.T) {
	toks, err := lex("0x1F 017 42")
	if err != nil {
		t.Fatalf("lex returned error: %s", err)
	}
	vals := []string{"0x1F", "017", "42"}
	for i, v := range vals {
		if toks[i].val != v {
			t.Errorf("token %d: expected %q, got %q", i, v, toks[i].val)
		}
		n, err := tokenValue(toks[i])
		if err != nil {
			t.Errorf("tokenValue(%q): unexpected error %s", v, err)
		}
		if i == 0 && n != 31 {
			t.Errorf("0x1F: expected 31, got %d", n)
		}
		if i == 1 && n != 15 {
			t.Errorf("017: expected 15, got %d", n)
		}
		if i == 2 && n != 42 {
			t.Errorf("42: expected 42, got %d", n)
		}
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, err := lex("/* never closed")
	if err == nil {
		t.Fatal("expected an error for an unterminated block comment")
	}
}
