package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func typesOf(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestTokenizeOperators(t *testing.T) {
	tests := []struct {
		src  string
		want []TokenType
	}{
		{"+", []TokenType{PLUS, EOF}},
		{"+=", []TokenType{PLUS_EQ, EOF}},
		{"++", []TokenType{PLUSPLUS, EOF}},
		{"<<=", []TokenType{SHL_EQ, EOF}},
		{"<< <", []TokenType{SHL, LT, EOF}},
		{"&&", []TokenType{ANDAND, EOF}},
		{"&=", []TokenType{AMP_EQ, EOF}},
		{"!= !", []TokenType{NEQ, BANG, EOF}},
	}
	for _, tc := range tests {
		got := typesOf(t, tc.src)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.src, diff)
		}
	}
}

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	toks, err := Tokenize("int x = while_loop;")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []Token{
		{Type: KW_INT, Lex: "int", Line: 1},
		{Type: IDENT, Lex: "x", Line: 1},
		{Type: ASSIGN, Lex: "=", Line: 1},
		{Type: IDENT, Lex: "while_loop", Line: 1},
		{Type: SEMI, Lex: ";", Line: 1},
		{Type: EOF, Line: 1},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestSkipsCommentsAndPreprocessorLines(t *testing.T) {
	src := "#include <foo.h>\nint x; // trailing\n/* block\ncomment */ int y;"
	got := typesOf(t, src)
	want := []TokenType{KW_INT, IDENT, SEMI, KW_INT, IDENT, SEMI, EOF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLineNumbersAdvanceAcrossNewlines(t *testing.T) {
	toks, err := Tokenize("int\nx\n=\n1;")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	wantLines := []int{1, 2, 3, 4, 4, 4}
	for i, tok := range toks {
		if tok.Line != wantLines[i] {
			t.Errorf("token %d (%v): line = %d, want %d", i, tok.Type, tok.Line, wantLines[i])
		}
	}
}

func TestIllegalCharacter(t *testing.T) {
	_, err := Tokenize("int x = 1 @ 2;")
	if err == nil {
		t.Fatal("expected an error for '@'")
	}
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error is %T, want *Error", err)
	}
	if lexErr.Ch != '@' {
		t.Errorf("Error.Ch = %q, want '@'", lexErr.Ch)
	}
}
