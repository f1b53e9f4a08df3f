package bytecode

import (
	"fmt"
	"strings"
)

// ConstantNamer describes constant k for listing comments. It may return ""
// when no description is available.
type ConstantNamer func(k int) string

// Disassemble returns a listing of code in assembler syntax, one instruction
// per line. Each line carries a comment with its pc, jump target and the
// constants it references, so the listing can be fed back to the assembler.
func Disassemble(code []uint32, names ConstantNamer) string {
	var sb strings.Builder
	for _, line := range DisassembleToLines(code, names) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DisassembleToLines returns the disassembly as a slice of lines.
func DisassembleToLines(code []uint32, names ConstantNamer) []string {
	lines := make([]string, 0, len(code))
	for pc, word := range code {
		lines = append(lines, DisassembleInstruction(pc, Instruction(word), names))
	}
	return lines
}

// DisassembleInstruction formats the instruction at pc.
func DisassembleInstruction(pc int, ins Instruction, names ConstantNamer) string {
	text := ins.String()
	op := ins.Opcode()
	if !op.Valid() {
		return text
	}

	notes := []string{fmt.Sprintf("[%d]", pc)}
	if op.IsJump() {
		notes = append(notes, fmt.Sprintf("to [%d]", pc+1+ins.SBx()))
	}
	if names != nil {
		for _, f := range op.Operands() {
			v, k := ins.Operand(f)
			if !k {
				continue
			}
			if desc := names(v); desc != "" {
				notes = append(notes, fmt.Sprintf("k%d = %s", v, desc))
			}
		}
	}
	return fmt.Sprintf("%-24s ; %s", text, strings.Join(notes, " "))
}
