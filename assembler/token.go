package assembler

import "fmt"

// Position in source.
type Position struct {
	Offset int // byte offset (0-based)
	Line   int // line number (1-based)
	Column int // column number (1-based, in bytes)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position refers to a place in the source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenWord             // directive, mnemonic, number, register, constant or bare name
	TokenString           // double-quoted literal, quotes included
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenWord:   "WORD",
	TokenString: "STRING",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token is one whitespace-delimited token of assembler source.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
}

// End returns the position just past the last byte of the token.
func (t Token) End() Position {
	return Position{
		Offset: t.Pos.Offset + len(t.Literal),
		Line:   t.Pos.Line,
		Column: t.Pos.Column + len(t.Literal),
	}
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
