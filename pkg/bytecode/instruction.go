package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Instruction is one packed Lua 5.1 instruction word.
type Instruction uint32

// Opcode returns the opcode field.
func (i Instruction) Opcode() Opcode { return Opcode(Lua51.Op.Decode(uint32(i))) }

// A returns the A field.
func (i Instruction) A() int { return Lua51.A.Decode(uint32(i)) }

// B returns the B field.
func (i Instruction) B() int { return Lua51.B.Decode(uint32(i)) }

// C returns the C field.
func (i Instruction) C() int { return Lua51.C.Decode(uint32(i)) }

// Bx returns the Bx field.
func (i Instruction) Bx() int { return Lua51.Bx.Decode(uint32(i)) }

// SBx returns the Bx field with the signed bias removed.
func (i Instruction) SBx() int { return i.Bx() - Lua51.SBxBias }

// Operand returns the value stored for one operand slot, as it would be
// written in source: RK operands come back as (index, isConstant).
func (i Instruction) Operand(f OperandFormat) (value int, constant bool) {
	switch f {
	case OperandA, OperandAR:
		return i.A(), false
	case OperandB, OperandBR:
		return i.B(), false
	case OperandC, OperandCR:
		return i.C(), false
	case OperandBRK:
		return splitRK(i.B())
	case OperandCRK:
		return splitRK(i.C())
	case OperandBx:
		return i.Bx(), false
	case OperandBxK:
		return i.Bx(), true
	case OperandSBx:
		return i.SBx(), false
	default:
		panic(fmt.Sprintf("unhandled operand format: %v", f))
	}
}

func splitRK(v int) (int, bool) {
	if v&Lua51.RKBit != 0 {
		return v &^ Lua51.RKBit, true
	}
	return v, false
}

// String formats the instruction in assembler syntax, e.g. "loadk r0 k1".
// Words with an undefined opcode are printed as a raw hex literal comment.
func (i Instruction) String() string {
	op := i.Opcode()
	if !op.Valid() {
		return fmt.Sprintf("; unknown instruction 0x%08X", uint32(i))
	}

	var sb strings.Builder
	sb.WriteString(op.String())
	for _, f := range op.Operands() {
		sb.WriteByte(' ')
		v, k := i.Operand(f)
		switch f {
		case OperandAR, OperandBR, OperandCR:
			sb.WriteByte('r')
		case OperandBxK:
			sb.WriteByte('k')
		case OperandBRK, OperandCRK:
			if k {
				sb.WriteByte('k')
			} else {
				sb.WriteByte('r')
			}
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}
