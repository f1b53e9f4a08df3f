package luac

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
)

// Writer serializes a chunk in one sequential pass. The first write error is
// kept and every later write becomes a no-op; Flush reports it.
type Writer struct {
	w   *bufio.Writer
	h   Header
	err error
}

// NewWriter creates a writer that encodes values per h.
func NewWriter(w io.Writer, h Header) *Writer {
	return &Writer{w: bufio.NewWriter(w), h: h}
}

// Encode writes c to w.
func Encode(w io.Writer, c *Chunk) error {
	if c.Main == nil {
		return fmt.Errorf("luac: chunk has no main function")
	}
	if err := c.Header.Validate(); err != nil {
		return fmt.Errorf("luac: %w", err)
	}
	cw := NewWriter(w, c.Header)
	cw.WriteHeader()
	cw.WriteFunction(c.Main)
	return cw.Flush()
}

// Marshal encodes c to bytes.
func Marshal(c *Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Flush writes any buffered bytes and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = fmt.Errorf("luac: write: %w", err)
	}
	return w.err
}

func (w *Writer) writeByte(b byte) {
	if w.err != nil {
		return
	}
	if err := w.w.WriteByte(b); err != nil {
		w.err = fmt.Errorf("luac: write: %w", err)
	}
}

func (w *Writer) writeBytes(p []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(p); err != nil {
		w.err = fmt.Errorf("luac: write: %w", err)
	}
}

// writeSized writes the low size bytes of x in the header's byte order.
func (w *Writer) writeSized(x uint64, size uint8) {
	switch w.h.Endianness {
	case BigEndian:
		for i := int(size) - 1; i >= 0; i-- {
			w.writeByte(byte(x >> (8 * uint(i))))
		}
	case LittleEndian:
		for i := 0; i < int(size); i++ {
			w.writeByte(byte(x))
			x >>= 8
		}
	default:
		panic(fmt.Sprintf("luac: unhandled endianness %d", w.h.Endianness))
	}
}

func (w *Writer) writeInt(x int) {
	w.writeSized(uint64(int64(x)), w.h.IntSize)
}

func (w *Writer) writeSizeT(x int) {
	w.writeSized(uint64(x), w.h.SizeTSize)
}

func (w *Writer) writeString(s string) {
	w.writeSizeT(len(s) + 1)
	w.writeBytes([]byte(s))
	w.writeByte(0)
}

// writeNumber writes v in the header's number format: binary32 for float 4,
// binary64 for float 8, and a truncated integer for integral formats. The
// width always follows the header so that a loader built with that format
// can read the chunk.
func (w *Writer) writeNumber(v float64) {
	switch {
	case w.h.NumberIntegral:
		w.writeSized(uint64(int64(v)), w.h.NumberSize)
	case w.h.NumberSize == 4:
		w.writeSized(uint64(math.Float32bits(float32(v))), 4)
	default:
		w.writeSized(math.Float64bits(v), w.h.NumberSize)
	}
}

// WriteHeader writes the signature and the header fields.
func (w *Writer) WriteHeader() {
	w.writeBytes(Signature)
	w.writeByte(Version)
	w.writeByte(w.h.Format)
	w.writeByte(byte(w.h.Endianness))
	w.writeByte(w.h.IntSize)
	w.writeByte(w.h.SizeTSize)
	w.writeByte(w.h.InstructionSize)
	w.writeByte(w.h.NumberSize)
	if w.h.NumberIntegral {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
}

// WriteFunction writes f and, recursively, its nested functions.
func (w *Writer) WriteFunction(f *Function) {
	w.writeString(f.Source)
	w.writeInt(f.LineDefined)
	w.writeInt(f.LastLineDefined)
	w.writeByte(byte(len(f.Upvalues)))
	w.writeByte(f.NumParams)
	w.writeByte(f.IsVararg)
	w.writeByte(f.MaxStackSize)

	w.writeInt(len(f.Code))
	for _, word := range f.Code {
		w.writeSized(uint64(word), w.h.InstructionSize)
	}

	w.writeInt(len(f.Constants))
	for _, k := range f.Constants {
		w.writeByte(byte(k.Type))
		switch k.Type {
		case ConstantNumber:
			w.writeNumber(k.Number)
		case ConstantString:
			w.writeString(k.String)
		default:
			panic(fmt.Sprintf("luac: unhandled constant type %v", k.Type))
		}
	}

	w.writeInt(len(f.Functions))
	for _, child := range f.Functions {
		w.WriteFunction(child)
	}

	w.writeInt(len(f.LineInfo))
	for _, line := range f.LineInfo {
		w.writeInt(line)
	}

	w.writeInt(len(f.Locals))
	for _, local := range f.Locals {
		w.writeString(local.Name)
		w.writeInt(local.Begin)
		w.writeInt(local.End)
	}

	// Upvalue names are written again here as debug info, after nups above.
	w.writeInt(len(f.Upvalues))
	for _, up := range f.Upvalues {
		w.writeString(up.Name)
	}
}
