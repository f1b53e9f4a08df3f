// Package listing exports binary chunks as canonical CBOR documents, for
// tools that diff or index chunks structurally instead of byte by byte.
// Every instruction is exported both as its raw word and decoded into its
// fields, and the document carries the SHA-256 of the binary chunk it was
// made from.
package listing

import (
	"crypto/sha256"
	"fmt"

	"github.com/chazu/luasm/pkg/bytecode"
	"github.com/chazu/luasm/pkg/luac"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("listing: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Chunk is the exported form of a luac.Chunk.
type Chunk struct {
	Digest [32]byte  `cbor:"1,keyasint"` // SHA-256 of the binary chunk
	Header Header    `cbor:"2,keyasint"`
	Main   *Function `cbor:"3,keyasint"`
}

// Header mirrors luac.Header.
type Header struct {
	Format          uint8  `cbor:"1,keyasint"`
	Endianness      string `cbor:"2,keyasint"` // "LITTLE" or "BIG"
	IntSize         uint8  `cbor:"3,keyasint"`
	SizeTSize       uint8  `cbor:"4,keyasint"`
	InstructionSize uint8  `cbor:"5,keyasint"`
	NumberSize      uint8  `cbor:"6,keyasint"`
	NumberIntegral  bool   `cbor:"7,keyasint"`
}

// Function mirrors luac.Function. Path is the assembler name of the
// function ("main", "main/f0", ...).
type Function struct {
	Path            string          `cbor:"1,keyasint"`
	Source          string          `cbor:"2,keyasint"`
	LineDefined     int             `cbor:"3,keyasint"`
	LastLineDefined int             `cbor:"4,keyasint"`
	NumParams       uint8           `cbor:"5,keyasint"`
	IsVararg        uint8           `cbor:"6,keyasint"`
	MaxStackSize    uint8           `cbor:"7,keyasint"`
	Code            []Instruction   `cbor:"8,keyasint,omitempty"`
	Constants       []Constant      `cbor:"9,keyasint,omitempty"`
	Functions       []*Function     `cbor:"10,keyasint,omitempty"`
	LineInfo        []int           `cbor:"11,keyasint,omitempty"`
	Locals          []luac.LocalVar `cbor:"12,keyasint,omitempty"`
	Upvalues        []luac.Upvalue  `cbor:"13,keyasint,omitempty"`
}

// Instruction is one instruction word with its decoded fields.
type Instruction struct {
	Word uint32 `cbor:"1,keyasint"`
	Op   string `cbor:"2,keyasint"`
	A    int    `cbor:"3,keyasint"`
	B    int    `cbor:"4,keyasint"`
	C    int    `cbor:"5,keyasint"`
	Bx   int    `cbor:"6,keyasint"`
	Text string `cbor:"7,keyasint"` // assembler syntax
}

// Constant is a tagged constant. Exactly one of String and Number is
// meaningful, as selected by Type (3 number, 4 string).
type Constant struct {
	Type   uint8   `cbor:"1,keyasint"`
	Number float64 `cbor:"2,keyasint,omitempty"`
	String string  `cbor:"3,keyasint,omitempty"`
}

// FromChunk converts c into its exported form.
func FromChunk(c *luac.Chunk) (*Chunk, error) {
	raw, err := luac.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}
	return &Chunk{
		Digest: sha256.Sum256(raw),
		Header: Header{
			Format:          c.Header.Format,
			Endianness:      c.Header.Endianness.String(),
			IntSize:         c.Header.IntSize,
			SizeTSize:       c.Header.SizeTSize,
			InstructionSize: c.Header.InstructionSize,
			NumberSize:      c.Header.NumberSize,
			NumberIntegral:  c.Header.NumberIntegral,
		},
		Main: exportFunction("main", c.Main),
	}, nil
}

func exportFunction(path string, f *luac.Function) *Function {
	out := &Function{
		Path:            path,
		Source:          f.Source,
		LineDefined:     f.LineDefined,
		LastLineDefined: f.LastLineDefined,
		NumParams:       f.NumParams,
		IsVararg:        f.IsVararg,
		MaxStackSize:    f.MaxStackSize,
		LineInfo:        f.LineInfo,
		Locals:          f.Locals,
		Upvalues:        f.Upvalues,
	}
	for _, word := range f.Code {
		ins := bytecode.Instruction(word)
		out.Code = append(out.Code, Instruction{
			Word: word,
			Op:   ins.Opcode().String(),
			A:    ins.A(),
			B:    ins.B(),
			C:    ins.C(),
			Bx:   ins.Bx(),
			Text: ins.String(),
		})
	}
	for _, k := range f.Constants {
		out.Constants = append(out.Constants, Constant{Type: uint8(k.Type), Number: k.Number, String: k.String})
	}
	for i, child := range f.Functions {
		out.Functions = append(out.Functions, exportFunction(fmt.Sprintf("%s/f%d", path, i), child))
	}
	return out
}

// ToChunk converts the exported form back into a luac.Chunk. Decoded
// instruction fields are ignored; the raw words are authoritative.
func (c *Chunk) ToChunk() (*luac.Chunk, error) {
	var e luac.Endianness
	switch c.Header.Endianness {
	case "LITTLE":
		e = luac.LittleEndian
	case "BIG":
		e = luac.BigEndian
	default:
		return nil, fmt.Errorf("listing: unknown endianness %q", c.Header.Endianness)
	}
	if c.Main == nil {
		return nil, fmt.Errorf("listing: chunk has no main function")
	}
	return &luac.Chunk{
		Header: luac.Header{
			Format:          c.Header.Format,
			Endianness:      e,
			IntSize:         c.Header.IntSize,
			SizeTSize:       c.Header.SizeTSize,
			InstructionSize: c.Header.InstructionSize,
			NumberSize:      c.Header.NumberSize,
			NumberIntegral:  c.Header.NumberIntegral,
		},
		Main: c.Main.toFunction(),
	}, nil
}

func (f *Function) toFunction() *luac.Function {
	out := &luac.Function{
		Source:          f.Source,
		LineDefined:     f.LineDefined,
		LastLineDefined: f.LastLineDefined,
		NumParams:       f.NumParams,
		IsVararg:        f.IsVararg,
		MaxStackSize:    f.MaxStackSize,
		LineInfo:        f.LineInfo,
		Locals:          f.Locals,
		Upvalues:        f.Upvalues,
	}
	for _, ins := range f.Code {
		out.Code = append(out.Code, ins.Word)
	}
	for _, k := range f.Constants {
		out.Constants = append(out.Constants, luac.Constant{Type: luac.ConstantType(k.Type), Number: k.Number, String: k.String})
	}
	for _, child := range f.Functions {
		out.Functions = append(out.Functions, child.toFunction())
	}
	return out
}

// Marshal exports c as canonical CBOR.
func Marshal(c *luac.Chunk) ([]byte, error) {
	doc, err := FromChunk(c)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(doc)
}

// Unmarshal decodes a document produced by Marshal.
func Unmarshal(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("listing: unmarshal chunk: %w", err)
	}
	return &c, nil
}
