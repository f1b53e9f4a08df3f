package assembler

import "fmt"

// Error is a problem with the assembler source. Pos is the start of the
// token being processed when the problem was found; it is zero for problems
// found after the whole input was read, such as a missing directive.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorAt(pos Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Fault is the panic value for an internal inconsistency, such as a
// constant value the lexer could not classify. It is never returned as an
// error. Pos is zero when the fault is not tied to a token.
type Fault struct {
	Pos Position
	Msg string
}

func (f *Fault) Error() string {
	return "luasm: internal error: " + f.Msg
}

func fault(format string, args ...any) {
	faultAt(Position{}, format, args...)
}

func faultAt(pos Position, format string, args ...any) {
	panic(&Fault{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}
