// Package assembler turns Lua 5.1 assembler source into a binary chunk.
//
// The source is a stream of whitespace-separated tokens. It starts with
// ".version 5.1", followed by header directives (.format, .endianness,
// .int_size, .size_t_size, .instruction_size, .number_format), function
// declarations (.function main, .function main/f, ...), function directives
// and instructions, which apply to the most recently declared function:
//
//	.version 5.1
//	.format 0
//	.endianness LITTLE
//	.int_size 4
//	.size_t_size 4
//	.instruction_size 4
//	.number_format float 8
//
//	.function main
//	.source "@hello.lua"
//	.linedefined 0
//	.lastlinedefined 0
//	.numparams 0
//	.is_vararg 2
//	.maxstacksize 2
//	.constant k0 "print"
//	.constant k1 "hello"
//	getglobal r0 k0
//	loadk r1 k1
//	call r0 2 1
//	return r0 1
//
// Assembly stops at the first error, which is returned as an *Error.
package assembler

import (
	"io"
	"strconv"

	"github.com/chazu/luasm/pkg/bytecode"
	"github.com/chazu/luasm/pkg/luac"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("luasm.assembler")

// Assembler holds the state of one assembly run.
type Assembler struct {
	lex   *Lexer
	tok   Token // most recently read token
	chunk *chunk
}

// New creates an assembler for src.
func New(src string) *Assembler {
	return &Assembler{lex: NewLexer(src), chunk: newChunk()}
}

// Parse assembles src into a chunk without encoding it.
func Parse(src string) (*luac.Chunk, error) {
	return New(src).Parse()
}

// Assemble reads assembler source from r and writes the binary chunk to w.
func Assemble(r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c, err := Parse(string(src))
	if err != nil {
		return err
	}
	return luac.Encode(w, c)
}

// Parse consumes the whole input and returns the chunk it describes.
func (a *Assembler) Parse() (*luac.Chunk, error) {
	if err := a.parseVersion(); err != nil {
		return nil, err
	}
	for {
		tok := a.lex.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		a.tok = tok
		if err := a.dispatch(tok); err != nil {
			return nil, err
		}
	}
	log.Debugf("assembled %d functions", len(a.chunk.funcs))
	return a.chunk.build()
}

func (a *Assembler) parseVersion() error {
	tok, err := a.next()
	if err != nil {
		return err
	}
	if tok.Literal != ".version" {
		return errorAt(tok.Pos, "First directive must be .version, instead was %q", tok.Literal)
	}
	tok, err = a.next()
	if err != nil {
		return err
	}
	if tok.Literal != "5.1" {
		return errorAt(tok.Pos, "Only version 5.1 is supported for assembly")
	}
	return nil
}

func (a *Assembler) dispatch(tok Token) error {
	if d, ok := LookupDirective(tok.Literal); ok {
		switch d.Kind() {
		case KindHeader:
			return a.chunk.processHeaderDirective(a, d, tok)
		case KindNewFunction:
			return a.chunk.processNewFunction(a)
		case KindFunction:
			if a.chunk.current == noProto {
				return errorAt(tok.Pos, "Misplaced function directive before declaration of any function")
			}
			return a.chunk.funcs[a.chunk.current].processFunctionDirective(a, d, tok)
		default:
			fault("unhandled directive kind %d", d.Kind())
		}
	}

	if tok.Type == TokenWord {
		if op, ok := bytecode.Lookup(tok.Literal); ok {
			if a.chunk.current == noProto {
				return errorAt(tok.Pos, "Misplaced code before declaration of any function")
			}
			return a.chunk.funcs[a.chunk.current].processOp(a, op, tok)
		}
	}
	return errorAt(tok.Pos, "Unexpected token %q", tok.Literal)
}

// next returns the next token or an error at the end of input.
func (a *Assembler) next() (Token, error) {
	tok := a.lex.NextToken()
	a.tok = tok
	if tok.Type == TokenEOF {
		return tok, errorAt(tok.Pos, "Unexpected end of file")
	}
	return tok, nil
}

// getName reads a name, which may also be written as a quoted literal.
func (a *Assembler) getName() (string, error) {
	tok, err := a.next()
	if err != nil {
		return "", err
	}
	if tok.Type == TokenString {
		s, err := luac.Unquote(tok.Literal)
		if err != nil {
			return "", errorAt(tok.Pos, "%v", err)
		}
		return s, nil
	}
	return tok.Literal, nil
}

// getString reads a quoted string literal.
func (a *Assembler) getString() (string, error) {
	tok, err := a.next()
	if err != nil {
		return "", err
	}
	s, err := luac.Unquote(tok.Literal)
	if err != nil {
		return "", errorAt(tok.Pos, "%v", err)
	}
	return s, nil
}

func (a *Assembler) getInteger() (int, error) {
	tok, err := a.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		return 0, errorAt(tok.Pos, "Expected number, got %q", tok.Literal)
	}
	return int(v), nil
}

func (a *Assembler) getBoolean() (bool, error) {
	tok, err := a.next()
	if err != nil {
		return false, err
	}
	switch tok.Literal {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errorAt(tok.Pos, "Expected boolean, got %q", tok.Literal)
}

// prefixed parses tokens such as "r12" or "k3".
func prefixed(lit string, prefix byte) (int, bool) {
	if len(lit) < 2 || lit[0] != prefix {
		return 0, false
	}
	v, err := strconv.ParseInt(lit[1:], 10, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func (a *Assembler) getRegister() (int, error) {
	tok, err := a.next()
	if err != nil {
		return 0, err
	}
	r, ok := prefixed(tok.Literal, 'r')
	if !ok {
		return 0, errorAt(tok.Pos, "Expected register, got %q", tok.Literal)
	}
	return r, nil
}

func (a *Assembler) getConstant() (int, error) {
	tok, err := a.next()
	if err != nil {
		return 0, err
	}
	k, ok := prefixed(tok.Literal, 'k')
	if !ok {
		return 0, errorAt(tok.Pos, "Expected constant, got %q", tok.Literal)
	}
	return k, nil
}

func (a *Assembler) getRegisterOrConstant() (v int, constant bool, err error) {
	tok, err := a.next()
	if err != nil {
		return 0, false, err
	}
	if r, ok := prefixed(tok.Literal, 'r'); ok {
		return r, false, nil
	}
	if k, ok := prefixed(tok.Literal, 'k'); ok {
		return k, true, nil
	}
	return 0, false, errorAt(tok.Pos, "Expected register or constant, got %q", tok.Literal)
}
