// Package luac reads and writes Lua 5.1 binary chunks.
//
// A chunk is a header followed by the main function prototype, which
// recursively contains its nested prototypes. Every multi-byte value is
// written at the width and byte order the header declares.
//
// Format:
//
//	[signature:4 "\x1bLua"] [version:1 0x51] [format:1] [endianness:1]
//	[int_size:1] [size_t_size:1] [instruction_size:1] [number_size:1] [integral:1]
//	function:
//	  [source:string] [linedefined:int] [lastlinedefined:int]
//	  [nups:1] [numparams:1] [is_vararg:1] [maxstacksize:1]
//	  [code_count:int] [code:instruction...]
//	  [const_count:int] ([tag:1] [number | string])...
//	  [proto_count:int] [function...]
//	  [lineinfo_count:int] [line:int...]
//	  [locvar_count:int] ([name:string] [startpc:int] [endpc:int])...
//	  [upvalue_count:int] [name:string...]
//	string:
//	  [size:size_t] [bytes...] [0]   size counts the terminator
package luac

import "fmt"

// Signature is the 4-byte magic that starts every chunk.
var Signature = []byte{0x1B, 'L', 'u', 'a'}

// Version is the version byte for Lua 5.1.
const Version byte = 0x51

// HeaderSize is the fixed size of the chunk header in bytes.
const HeaderSize = 12

// Endianness is the byte order declared by a chunk header.
type Endianness uint8

const (
	BigEndian    Endianness = 0
	LittleEndian Endianness = 1
)

// String returns the assembler spelling of the byte order.
func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "BIG"
	case LittleEndian:
		return "LITTLE"
	default:
		return fmt.Sprintf("Endianness(%d)", e)
	}
}

// Header describes the widths and byte order used by the rest of a chunk.
type Header struct {
	Format          uint8
	Endianness      Endianness
	IntSize         uint8
	SizeTSize       uint8
	InstructionSize uint8
	NumberSize      uint8
	NumberIntegral  bool
}

// Validate returns an error if the writer cannot encode values at the
// declared widths.
func (h Header) Validate() error {
	if h.Endianness != BigEndian && h.Endianness != LittleEndian {
		return fmt.Errorf("invalid endianness %d", h.Endianness)
	}
	for _, s := range []struct {
		name string
		size uint8
	}{
		{"int_size", h.IntSize},
		{"size_t_size", h.SizeTSize},
		{"instruction_size", h.InstructionSize},
	} {
		if s.size < 1 || s.size > 8 {
			return fmt.Errorf("unsupported %s %d (want 1..8)", s.name, s.size)
		}
	}
	if h.NumberIntegral {
		switch h.NumberSize {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("unsupported integer number_format size %d (want 1, 2, 4 or 8)", h.NumberSize)
		}
	} else if h.NumberSize != 4 && h.NumberSize != 8 {
		return fmt.Errorf("unsupported float number_format size %d (want 4 or 8)", h.NumberSize)
	}
	return nil
}

// ConstantType is the tag byte written before each constant.
type ConstantType uint8

const (
	ConstantNumber ConstantType = 3
	ConstantString ConstantType = 4
)

// String returns a human-readable name for ConstantType.
func (t ConstantType) String() string {
	switch t {
	case ConstantNumber:
		return "number"
	case ConstantString:
		return "string"
	default:
		return fmt.Sprintf("ConstantType(%d)", t)
	}
}

// Constant is one entry of a function's constant pool.
type Constant struct {
	Type   ConstantType
	Number float64
	String string // raw bytes
}

// NumberConstant returns a number constant.
func NumberConstant(v float64) Constant {
	return Constant{Type: ConstantNumber, Number: v}
}

// StringConstant returns a string constant.
func StringConstant(s string) Constant {
	return Constant{Type: ConstantString, String: s}
}

// Upvalue describes a variable captured by a closure. Only Name is part of
// the 5.1 binary format; Index and InStack are carried for tooling.
type Upvalue struct {
	Name    string
	Index   int
	InStack bool
}

// LocalVar is a local variable live over instructions [Begin, End).
type LocalVar struct {
	Name  string
	Begin int
	End   int
}

// Function is one function prototype.
type Function struct {
	Source          string
	LineDefined     int
	LastLineDefined int
	NumParams       uint8
	IsVararg        uint8
	MaxStackSize    uint8

	Code      []uint32
	Constants []Constant
	Functions []*Function

	// Debug information
	LineInfo []int
	Locals   []LocalVar
	Upvalues []Upvalue
}

// Chunk is a complete binary chunk: header plus main function.
type Chunk struct {
	Header Header
	Main   *Function
}

// Walk calls fn for f and every nested function, depth first, with the
// assembler path of each function ("main", "main/f0", ...).
func (f *Function) Walk(name string, fn func(path string, f *Function)) {
	fn(name, f)
	for i, child := range f.Functions {
		child.Walk(fmt.Sprintf("%s/f%d", name, i), fn)
	}
}
