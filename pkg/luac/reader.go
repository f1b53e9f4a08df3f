package luac

import (
	"bytes"
	"fmt"
	"math"
)

// maxListLen bounds list counts so a corrupt count cannot trigger a huge allocation.
const maxListLen = 1 << 24

// reader decodes a chunk held in memory.
type reader struct {
	data []byte
	pos  int
	h    Header
}

// Decode parses a chunk produced by Encode or by a stock luac for Lua 5.1.
func Decode(data []byte) (*Chunk, error) {
	r := &reader{data: data}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	main, err := r.readFunction(0)
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.data) {
		return nil, fmt.Errorf("luac: %d trailing bytes after main function", len(r.data)-r.pos)
	}
	return &Chunk{Header: r.h, Main: main}, nil
}

func (r *reader) need(n int, what string) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("luac: unexpected end of chunk reading %s at pos %d", what, r.pos)
	}
	return nil
}

func (r *reader) readByte(what string) (byte, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readSized(size uint8, what string) (uint64, error) {
	if err := r.need(int(size), what); err != nil {
		return 0, err
	}
	p := r.data[r.pos : r.pos+int(size)]
	r.pos += int(size)

	var x uint64
	switch r.h.Endianness {
	case BigEndian:
		for _, b := range p {
			x = x<<8 | uint64(b)
		}
	default:
		for i := len(p) - 1; i >= 0; i-- {
			x = x<<8 | uint64(p[i])
		}
	}
	return x, nil
}

// readInt reads a signed int at the header's int width.
func (r *reader) readInt(what string) (int, error) {
	x, err := r.readSized(r.h.IntSize, what)
	if err != nil {
		return 0, err
	}
	return int(signExtend(x, r.h.IntSize)), nil
}

func signExtend(x uint64, size uint8) int64 {
	shift := 64 - 8*uint(size)
	return int64(x<<shift) >> shift
}

func (r *reader) readCount(what string) (int, error) {
	n, err := r.readInt(what)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxListLen {
		return 0, fmt.Errorf("luac: invalid %s %d at pos %d", what, n, r.pos)
	}
	return n, nil
}

func (r *reader) readString(what string) (string, error) {
	n, err := r.readSized(r.h.SizeTSize, what+" length")
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > uint64(len(r.data)) {
		return "", fmt.Errorf("luac: %s length %d exceeds chunk size", what, n)
	}
	if err := r.need(int(n), what); err != nil {
		return "", err
	}
	p := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	if p[len(p)-1] != 0 {
		return "", fmt.Errorf("luac: %s is not NUL-terminated", what)
	}
	return string(p[:len(p)-1]), nil
}

func (r *reader) readNumber(what string) (float64, error) {
	x, err := r.readSized(r.h.NumberSize, what)
	if err != nil {
		return 0, err
	}
	switch {
	case r.h.NumberIntegral:
		return float64(signExtend(x, r.h.NumberSize)), nil
	case r.h.NumberSize == 4:
		return float64(math.Float32frombits(uint32(x))), nil
	default:
		return math.Float64frombits(x), nil
	}
}

func (r *reader) readHeader() error {
	if len(r.data) < HeaderSize {
		return fmt.Errorf("luac: chunk too short: need at least %d bytes, got %d", HeaderSize, len(r.data))
	}
	if !bytes.Equal(r.data[0:4], Signature) {
		return fmt.Errorf("luac: invalid signature %q", r.data[0:4])
	}
	if r.data[4] != Version {
		return fmt.Errorf("luac: unsupported version 0x%02X", r.data[4])
	}
	r.h = Header{
		Format:          r.data[5],
		Endianness:      Endianness(r.data[6]),
		IntSize:         r.data[7],
		SizeTSize:       r.data[8],
		InstructionSize: r.data[9],
		NumberSize:      r.data[10],
		NumberIntegral:  r.data[11] != 0,
	}
	r.pos = HeaderSize
	if err := r.h.Validate(); err != nil {
		return fmt.Errorf("luac: %w", err)
	}
	return nil
}

func (r *reader) readFunction(depth int) (*Function, error) {
	if depth > 200 {
		return nil, fmt.Errorf("luac: functions nested too deeply at pos %d", r.pos)
	}

	f := &Function{}
	var err error

	if f.Source, err = r.readString("source"); err != nil {
		return nil, err
	}
	if f.LineDefined, err = r.readInt("linedefined"); err != nil {
		return nil, err
	}
	if f.LastLineDefined, err = r.readInt("lastlinedefined"); err != nil {
		return nil, err
	}
	nups, err := r.readByte("nups")
	if err != nil {
		return nil, err
	}
	if f.NumParams, err = r.readByte("numparams"); err != nil {
		return nil, err
	}
	if f.IsVararg, err = r.readByte("is_vararg"); err != nil {
		return nil, err
	}
	if f.MaxStackSize, err = r.readByte("maxstacksize"); err != nil {
		return nil, err
	}

	// Code
	n, err := r.readCount("code count")
	if err != nil {
		return nil, err
	}
	f.Code = make([]uint32, n)
	for i := range f.Code {
		word, err := r.readSized(r.h.InstructionSize, "instruction")
		if err != nil {
			return nil, err
		}
		f.Code[i] = uint32(word)
	}

	// Constants
	if n, err = r.readCount("constant count"); err != nil {
		return nil, err
	}
	f.Constants = make([]Constant, n)
	for i := range f.Constants {
		tag, err := r.readByte("constant tag")
		if err != nil {
			return nil, err
		}
		k := Constant{Type: ConstantType(tag)}
		switch k.Type {
		case ConstantNumber:
			if k.Number, err = r.readNumber("number constant"); err != nil {
				return nil, err
			}
		case ConstantString:
			if k.String, err = r.readString("string constant"); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("luac: unsupported constant type %d at pos %d", tag, r.pos-1)
		}
		f.Constants[i] = k
	}

	// Nested functions
	if n, err = r.readCount("function count"); err != nil {
		return nil, err
	}
	f.Functions = make([]*Function, n)
	for i := range f.Functions {
		if f.Functions[i], err = r.readFunction(depth + 1); err != nil {
			return nil, err
		}
	}

	// Line info
	if n, err = r.readCount("line info count"); err != nil {
		return nil, err
	}
	f.LineInfo = make([]int, n)
	for i := range f.LineInfo {
		if f.LineInfo[i], err = r.readInt("line info"); err != nil {
			return nil, err
		}
	}

	// Locals
	if n, err = r.readCount("local count"); err != nil {
		return nil, err
	}
	f.Locals = make([]LocalVar, n)
	for i := range f.Locals {
		l := &f.Locals[i]
		if l.Name, err = r.readString("local name"); err != nil {
			return nil, err
		}
		if l.Begin, err = r.readInt("local startpc"); err != nil {
			return nil, err
		}
		if l.End, err = r.readInt("local endpc"); err != nil {
			return nil, err
		}
	}

	// Upvalue names; stripped chunks have none even when nups > 0.
	if n, err = r.readCount("upvalue count"); err != nil {
		return nil, err
	}
	if n != 0 && n != int(nups) {
		return nil, fmt.Errorf("luac: %d upvalue names for %d upvalues", n, nups)
	}
	f.Upvalues = make([]Upvalue, nups)
	for i := 0; i < n; i++ {
		if f.Upvalues[i].Name, err = r.readString("upvalue name"); err != nil {
			return nil, err
		}
	}

	return f, nil
}
