package bytecode

import (
	"fmt"
	"strings"
)

// Opcode is a Lua 5.1 virtual machine opcode, numbered as the reference VM numbers them.
type Opcode uint8

const (
	// ========================================================================
	// Loads and moves (0-5)
	// ========================================================================

	OpMove      Opcode = 0 // R(A) := R(B)
	OpLoadK     Opcode = 1 // R(A) := Kst(Bx)
	OpLoadBool  Opcode = 2 // R(A) := (Bool)B; if (C) pc++
	OpLoadNil   Opcode = 3 // R(A) := ... := R(B) := nil
	OpGetUpval  Opcode = 4 // R(A) := UpValue[B]
	OpGetGlobal Opcode = 5 // R(A) := Gbl[Kst(Bx)]

	// ========================================================================
	// Tables and globals (6-11)
	// ========================================================================

	OpGetTable  Opcode = 6  // R(A) := R(B)[RK(C)]
	OpSetGlobal Opcode = 7  // Gbl[Kst(Bx)] := R(A)
	OpSetUpval  Opcode = 8  // UpValue[B] := R(A)
	OpSetTable  Opcode = 9  // R(A)[RK(B)] := RK(C)
	OpNewTable  Opcode = 10 // R(A) := {} (size = B,C)
	OpSelf      Opcode = 11 // R(A+1) := R(B); R(A) := R(B)[RK(C)]

	// ========================================================================
	// Arithmetic (12-21)
	// ========================================================================

	OpAdd    Opcode = 12 // R(A) := RK(B) + RK(C)
	OpSub    Opcode = 13 // R(A) := RK(B) - RK(C)
	OpMul    Opcode = 14 // R(A) := RK(B) * RK(C)
	OpDiv    Opcode = 15 // R(A) := RK(B) / RK(C)
	OpMod    Opcode = 16 // R(A) := RK(B) % RK(C)
	OpPow    Opcode = 17 // R(A) := RK(B) ^ RK(C)
	OpUnm    Opcode = 18 // R(A) := -R(B)
	OpNot    Opcode = 19 // R(A) := not R(B)
	OpLen    Opcode = 20 // R(A) := length of R(B)
	OpConcat Opcode = 21 // R(A) := R(B).. ... ..R(C)

	// ========================================================================
	// Control flow (22-35)
	// ========================================================================

	OpJmp      Opcode = 22 // pc += sBx
	OpEq       Opcode = 23 // if ((RK(B) == RK(C)) ~= A) then pc++
	OpLt       Opcode = 24 // if ((RK(B) <  RK(C)) ~= A) then pc++
	OpLe       Opcode = 25 // if ((RK(B) <= RK(C)) ~= A) then pc++
	OpTest     Opcode = 26 // if not (R(A) <=> C) then pc++
	OpTestSet  Opcode = 27 // if (R(B) <=> C) then R(A) := R(B) else pc++
	OpCall     Opcode = 28 // R(A), ... ,R(A+C-2) := R(A)(R(A+1), ... ,R(A+B-1))
	OpTailCall Opcode = 29 // return R(A)(R(A+1), ... ,R(A+B-1))
	OpReturn   Opcode = 30 // return R(A), ... ,R(A+B-2)
	OpForLoop  Opcode = 31 // R(A)+=R(A+2); if R(A) <?= R(A+1) then { pc+=sBx; R(A+3)=R(A) }
	OpForPrep  Opcode = 32 // R(A)-=R(A+2); pc+=sBx
	OpTForLoop Opcode = 33 // R(A+3), ... ,R(A+2+C) := R(A)(R(A+1), R(A+2))
	OpSetList  Opcode = 34 // R(A)[(C-1)*FPF+i] := R(A+i), 1 <= i <= B
	OpClose    Opcode = 35 // close all variables in the stack up to (>=) R(A)

	// ========================================================================
	// Closures (36-37)
	// ========================================================================

	OpClosure Opcode = 36 // R(A) := closure(KPROTO[Bx], R(A), ... ,R(A+n))
	OpVararg  Opcode = 37 // R(A), R(A+1), ..., R(A+B-1) = vararg
)

// OperandFormat describes one operand slot of an instruction: which field of the
// instruction word it fills and how it is written in assembly source.
type OperandFormat uint8

const (
	OperandA   OperandFormat = iota // A, plain integer
	OperandAR                       // A, register
	OperandB                        // B, plain integer
	OperandBR                       // B, register
	OperandBRK                      // B, register or constant
	OperandC                        // C, plain integer
	OperandCR                       // C, register
	OperandCRK                      // C, register or constant
	OperandBx                       // Bx, plain integer
	OperandBxK                      // Bx, constant
	OperandSBx                      // Bx, signed integer
)

var operandFormatNames = [...]string{
	OperandA:   "A",
	OperandAR:  "AR",
	OperandB:   "B",
	OperandBR:  "BR",
	OperandBRK: "BRK",
	OperandC:   "C",
	OperandCR:  "CR",
	OperandCRK: "CRK",
	OperandBx:  "Bx",
	OperandBxK: "BxK",
	OperandSBx: "sBx",
}

// String returns the conventional name of the operand format.
func (f OperandFormat) String() string {
	if int(f) < len(operandFormatNames) {
		return operandFormatNames[f]
	}
	return fmt.Sprintf("OperandFormat(%d)", f)
}

// Field returns the name of the instruction field this operand is stored in.
func (f OperandFormat) Field() string {
	switch f {
	case OperandA, OperandAR:
		return "A"
	case OperandB, OperandBR, OperandBRK:
		return "B"
	case OperandC, OperandCR, OperandCRK:
		return "C"
	case OperandBx, OperandBxK, OperandSBx:
		return "Bx"
	default:
		return "?"
	}
}

// OpcodeInfo provides metadata about each opcode for assembly and listing.
type OpcodeInfo struct {
	Name     string          // Lower-case mnemonic
	Operands []OperandFormat // Operand slots in source order
}

// opcodeInfoTable is indexed by opcode number.
var opcodeInfoTable = [...]OpcodeInfo{
	OpMove:      {"move", []OperandFormat{OperandAR, OperandBR}},
	OpLoadK:     {"loadk", []OperandFormat{OperandAR, OperandBxK}},
	OpLoadBool:  {"loadbool", []OperandFormat{OperandAR, OperandB, OperandC}},
	OpLoadNil:   {"loadnil", []OperandFormat{OperandAR, OperandBR}},
	OpGetUpval:  {"getupval", []OperandFormat{OperandAR, OperandB}},
	OpGetGlobal: {"getglobal", []OperandFormat{OperandAR, OperandBxK}},

	OpGetTable:  {"gettable", []OperandFormat{OperandAR, OperandBR, OperandCRK}},
	OpSetGlobal: {"setglobal", []OperandFormat{OperandAR, OperandBxK}},
	OpSetUpval:  {"setupval", []OperandFormat{OperandAR, OperandB}},
	OpSetTable:  {"settable", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpNewTable:  {"newtable", []OperandFormat{OperandAR, OperandB, OperandC}},
	OpSelf:      {"self", []OperandFormat{OperandAR, OperandBR, OperandCRK}},

	OpAdd:    {"add", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpSub:    {"sub", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpMul:    {"mul", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpDiv:    {"div", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpMod:    {"mod", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpPow:    {"pow", []OperandFormat{OperandAR, OperandBRK, OperandCRK}},
	OpUnm:    {"unm", []OperandFormat{OperandAR, OperandBR}},
	OpNot:    {"not", []OperandFormat{OperandAR, OperandBR}},
	OpLen:    {"len", []OperandFormat{OperandAR, OperandBR}},
	OpConcat: {"concat", []OperandFormat{OperandAR, OperandBR, OperandCR}},

	OpJmp:      {"jmp", []OperandFormat{OperandSBx}},
	OpEq:       {"eq", []OperandFormat{OperandA, OperandBRK, OperandCRK}},
	OpLt:       {"lt", []OperandFormat{OperandA, OperandBRK, OperandCRK}},
	OpLe:       {"le", []OperandFormat{OperandA, OperandBRK, OperandCRK}},
	OpTest:     {"test", []OperandFormat{OperandAR, OperandC}},
	OpTestSet:  {"testset", []OperandFormat{OperandAR, OperandBR, OperandC}},
	OpCall:     {"call", []OperandFormat{OperandAR, OperandB, OperandC}},
	OpTailCall: {"tailcall", []OperandFormat{OperandAR, OperandB, OperandC}},
	OpReturn:   {"return", []OperandFormat{OperandAR, OperandB}},
	OpForLoop:  {"forloop", []OperandFormat{OperandAR, OperandSBx}},
	OpForPrep:  {"forprep", []OperandFormat{OperandAR, OperandSBx}},
	OpTForLoop: {"tforloop", []OperandFormat{OperandAR, OperandC}},
	OpSetList:  {"setlist", []OperandFormat{OperandAR, OperandB, OperandC}},
	OpClose:    {"close", []OperandFormat{OperandAR}},

	OpClosure: {"closure", []OperandFormat{OperandAR, OperandBx}},
	OpVararg:  {"vararg", []OperandFormat{OperandAR, OperandB}},
}

// mnemonicTable maps lower-case mnemonics to opcodes. Built once at init.
var mnemonicTable = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for i, info := range opcodeInfoTable {
		m[info.Name] = Opcode(i)
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo with name "unknown(N)" and no operands if the opcode is not defined.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if int(op) < len(opcodeInfoTable) {
		return opcodeInfoTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown(%d)", byte(op))}
}

// Lookup resolves a mnemonic, ignoring case.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicTable[strings.ToLower(mnemonic)]
	return op, ok
}

// String returns the lower-case mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Operands returns the operand signature of an opcode.
func (op Opcode) Operands() []OperandFormat {
	return GetOpcodeInfo(op).Operands
}

// Valid reports whether op is a defined Lua 5.1 opcode.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeInfoTable)
}

// IsJump returns true if the instruction's sBx operand is a pc-relative jump.
func (op Opcode) IsJump() bool {
	return op == OpJmp || op == OpForLoop || op == OpForPrep
}

// AllOpcodes returns every defined opcode in numeric order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, len(opcodeInfoTable))
	for i := range opcodeInfoTable {
		opcodes[i] = Opcode(i)
	}
	return opcodes
}
