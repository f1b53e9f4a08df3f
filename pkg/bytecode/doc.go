// Package bytecode describes the Lua 5.1 instruction set: the opcode table,
// the bit layout of an instruction word, and the operand field codec that
// packs symbolic operands into that layout.
//
// # Instruction layout
//
// A Lua 5.1 instruction is a 32-bit word. The low 6 bits hold the opcode and
// the remaining bits are split into operand fields:
//
//	 31       23       14        6      0
//	+---------+---------+--------+------+
//	|    B    |    C    |   A    |  Op  |   iABC
//	+---------+---------+--------+------+
//	|        Bx         |   A    |  Op  |   iABx / iAsBx
//	+-------------------+--------+------+
//
// Bx overlaps B and C. A signed sBx operand is stored in Bx with a bias of
// 131071. B and C operands of the RK kind select a constant when bit 8 is
// set, so they address registers and constants 0..255.
//
// # Operand formats
//
// Every opcode carries an ordered operand signature (see OperandFormat). The
// format decides which field an operand fills and how it is spelled in
// assembly source: plain integers, registers ("r3"), constants ("k7"), or
// either for RK operands.
//
// Field.Check must be called before Field.Encode; Encode never fails and does
// not mask. Range errors are reported by the caller, which knows the operand
// and the instruction being assembled.
package bytecode
