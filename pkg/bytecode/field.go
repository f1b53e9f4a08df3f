package bytecode

// Field is a bit range inside an instruction word.
type Field struct {
	Width  uint // Number of bits
	Offset uint // Bit position of the least significant bit
}

// Max returns the largest value the field can hold.
func (f Field) Max() int {
	return 1<<f.Width - 1
}

// Check reports whether 0 <= v < 2^Width.
func (f Field) Check(v int) bool {
	return v >= 0 && v <= f.Max()
}

// Encode shifts v into position. The result is meant to be OR-ed with the
// other fields of the word. Callers must Check first; out-of-range values are
// not masked.
func (f Field) Encode(v int) uint32 {
	return uint32(v) << f.Offset
}

// Decode extracts the field from a word.
func (f Field) Decode(word uint32) int {
	return int(word>>f.Offset) & f.Max()
}

// Layout describes where each field lives in an instruction word for one
// target VM version. Fields never overlap except Bx, which covers B and C.
type Layout struct {
	Op Field
	A  Field
	B  Field
	C  Field
	Bx Field

	// SBxBias is added to a signed sBx operand before it is stored in Bx.
	SBxBias int

	// RKBit is set in a B or C operand to select a constant instead of a register.
	RKBit int
}

// Lua51 is the instruction layout of the Lua 5.1 VM: a 32-bit word with
// a 6-bit opcode, 8-bit A, 9-bit B and C, and an 18-bit Bx overlapping B and C.
var Lua51 = Layout{
	Op:      Field{Width: 6, Offset: 0},
	A:       Field{Width: 8, Offset: 6},
	C:       Field{Width: 9, Offset: 14},
	B:       Field{Width: 9, Offset: 23},
	Bx:      Field{Width: 18, Offset: 14},
	SBxBias: 1<<17 - 1,
	RKBit:   1 << 8,
}

// MaxRK returns the largest register or constant index an RK operand can address.
func (l Layout) MaxRK() int {
	return l.RKBit - 1
}

// SBxRange returns the inclusive range of a signed Bx operand.
func (l Layout) SBxRange() (lo, hi int) {
	return -l.SBxBias, l.Bx.Max() - l.SBxBias
}
