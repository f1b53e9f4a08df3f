package assembler

import "testing"

func TestLexerTokens(t *testing.T) {
	input := ".function main/f ; comment here\n  move r0 r1;trailing\n\tloadk r0 k1"
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenWord, ".function"},
		{TokenWord, "main/f"},
		{TokenWord, "move"},
		{TokenWord, "r0"},
		{TokenWord, "r1"},
		{TokenWord, "loadk"},
		{TokenWord, "r0"},
		{TokenWord, "k1"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, `"hello"`},
		{`"two words"`, `"two words"`},
		{`"semi;colon"`, `"semi;colon"`},
		{`"esc\"aped" next`, `"esc\"aped"`},
		{`"back\\" next`, `"back\\"`},
		{"\"open\nnext", `"open`},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%q): type = %v, want STRING", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	input := "a bb\n  ccc ; x\n\n d"
	want := []Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 2, Line: 1, Column: 3},
		{Offset: 7, Line: 2, Column: 3},
		{Offset: 17, Line: 4, Column: 2},
	}
	tokens := Tokenize(input)
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Pos != want[i] {
			t.Errorf("token[%d] %s at %+v, want %+v", i, tok, tok.Pos, want[i])
		}
	}
	if end := tokens[2].End(); end.Column != 6 || end.Offset != 10 {
		t.Errorf("End() = %+v, want column 6 offset 10", end)
	}
}

func TestLexerEmpty(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "; only a comment", ";a\n;b\n"} {
		if toks := Tokenize(input); len(toks) != 0 {
			t.Errorf("Tokenize(%q) = %v, want no tokens", input, toks)
		}
	}
}
