package assembler

// ---------------------------------------------------------------------------
// Lexer: whitespace-delimited tokens with ';' line comments
// ---------------------------------------------------------------------------

// Lexer splits assembler source into tokens. Tokens are separated by
// whitespace; ';' starts a comment that runs to the end of the line. A token
// starting with '"' is read up to the matching unescaped '"' and may contain
// whitespace and ';'. An unterminated literal ends at the end of the line and
// is rejected later when it is unquoted.
type Lexer struct {
	input     string
	pos       int // offset of the next unread byte
	line      int // current line (1-based)
	lineStart int // offset of current line start
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		c := l.peek()
		switch {
		case isSpace(c):
			l.advance()
		case c == ';':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token, or a TokenEOF token at the end of input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	if l.peek() == '"' {
		return l.readString(pos)
	}

	start := l.pos
	for l.pos < len(l.input) {
		c := l.peek()
		if isSpace(c) || c == ';' {
			break
		}
		l.advance()
	}
	return Token{Type: TokenWord, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readString(pos Position) Token {
	start := l.pos
	l.advance() // opening quote
	for l.pos < len(l.input) {
		c := l.peek()
		if c == '\n' {
			break
		}
		l.advance()
		if c == '"' {
			break
		}
		if c == '\\' && l.pos < len(l.input) && l.peek() != '\n' {
			l.advance()
		}
	}
	return Token{Type: TokenString, Literal: l.input[start:l.pos], Pos: pos}
}

// Tokenize returns every token of input, excluding the final EOF token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
