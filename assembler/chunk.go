package assembler

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/luasm/pkg/luac"
)

type numberFormat struct {
	integral bool
	size     int
}

// chunk accumulates header fields and the function arena of one run.
type chunk struct {
	format          optional[int]
	endianness      optional[luac.Endianness]
	intSize         optional[int]
	sizeTSize       optional[int]
	instructionSize optional[int]
	numberFormat    optional[numberFormat]

	funcs   []*function
	main    protoID
	current protoID
}

func newChunk() *chunk {
	return &chunk{main: noProto, current: noProto}
}

func (c *chunk) processHeaderDirective(a *Assembler, d Directive, at Token) error {
	switch d {
	case DirFormat:
		return setByte(a, &c.format, d, at)
	case DirEndianness:
		if c.endianness.set {
			return duplicate(at, d)
		}
		name, err := a.getName()
		if err != nil {
			return err
		}
		switch name {
		case "LITTLE":
			c.endianness.Set(luac.LittleEndian)
		case "BIG":
			c.endianness.Set(luac.BigEndian)
		default:
			return errorAt(a.tok.Pos, "Unknown endianness %q", name)
		}
	case DirIntSize:
		return setByte(a, &c.intSize, d, at)
	case DirSizeTSize:
		return setByte(a, &c.sizeTSize, d, at)
	case DirInstructionSize:
		return setByte(a, &c.instructionSize, d, at)
	case DirNumberFormat:
		if c.numberFormat.set {
			return duplicate(at, d)
		}
		name, err := a.getName()
		if err != nil {
			return err
		}
		var nf numberFormat
		switch name {
		case "integer":
			nf.integral = true
		case "float":
		default:
			return errorAt(a.tok.Pos, "Unknown number_format %q", name)
		}
		if nf.size, err = a.getInteger(); err != nil {
			return err
		}
		if nf.size < 0 || nf.size > math.MaxUint8 {
			return errorAt(a.tok.Pos, "Value %d out of range for %s", nf.size, d)
		}
		c.numberFormat.Set(nf)
	default:
		fault("unhandled header directive %s", d)
	}
	return nil
}

// processNewFunction handles .function. The first declaration names the main
// function; later names are paths from it, such as "main/f/g", and the last
// segment is declared as a child of the function the other segments name.
func (c *chunk) processNewFunction(a *Assembler) error {
	name, err := a.getName()
	if err != nil {
		return err
	}
	pos := a.tok.Pos

	if c.main == noProto {
		if strings.Contains(name, "/") {
			return errorAt(pos, "First (main) function declaration must not have a \"/\" in the name")
		}
		c.main = c.add(newFunction(name, noProto))
		c.current = c.main
		log.Debugf("declared main function %s", name)
		return nil
	}

	parts := strings.Split(name, "/")
	if len(parts) < 2 || parts[0] != c.funcs[c.main].name {
		return errorAt(pos, "Function %q isn't contained in the main function", name)
	}
	for _, part := range parts[1:] {
		if part == "" {
			return errorAt(pos, "Empty path segment in function name %q", name)
		}
	}

	parent := c.main
	for _, seg := range parts[1 : len(parts)-1] {
		child, ok := c.child(parent, seg)
		if !ok {
			return errorAt(pos, "Can't find outer function %q for %q", seg, name)
		}
		parent = child
	}

	id := c.add(newFunction(name, parent))
	c.funcs[parent].children = append(c.funcs[parent].children, id)
	c.current = id
	log.Debugf("declared function %s", name)
	return nil
}

func (c *chunk) add(f *function) protoID {
	c.funcs = append(c.funcs, f)
	return protoID(len(c.funcs) - 1)
}

// child returns the first child of parent whose last path segment is seg.
func (c *chunk) child(parent protoID, seg string) (protoID, bool) {
	for _, id := range c.funcs[parent].children {
		name := c.funcs[id].name
		if name[strings.LastIndexByte(name, '/')+1:] == seg {
			return id, true
		}
	}
	return noProto, false
}

// build returns the finished chunk. Every header field and every function
// scalar must have been supplied.
func (c *chunk) build() (*luac.Chunk, error) {
	for _, req := range []struct {
		d   Directive
		set bool
	}{
		{DirFormat, c.format.set},
		{DirEndianness, c.endianness.set},
		{DirIntSize, c.intSize.set},
		{DirSizeTSize, c.sizeTSize.set},
		{DirInstructionSize, c.instructionSize.set},
		{DirNumberFormat, c.numberFormat.set},
	} {
		if !req.set {
			return nil, &Error{Msg: fmt.Sprintf("Missing %s directive", req.d)}
		}
	}
	if c.main == noProto {
		return nil, &Error{Msg: "Missing .function directive"}
	}

	h := luac.Header{
		Format:          uint8(c.format.value),
		Endianness:      c.endianness.value,
		IntSize:         uint8(c.intSize.value),
		SizeTSize:       uint8(c.sizeTSize.value),
		InstructionSize: uint8(c.instructionSize.value),
		NumberSize:      uint8(c.numberFormat.value.size),
		NumberIntegral:  c.numberFormat.value.integral,
	}
	if err := h.Validate(); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("Invalid header: %v", err)}
	}

	main, err := c.funcs[c.main].build(c)
	if err != nil {
		return nil, err
	}
	return &luac.Chunk{Header: h, Main: main}, nil
}
