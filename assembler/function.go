package assembler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/luasm/pkg/bytecode"
	"github.com/chazu/luasm/pkg/luac"
)

// protoID indexes a function in the chunk arena.
type protoID int

const noProto protoID = -1

// function is a prototype under construction.
type function struct {
	name     string // path from main, e.g. "main/f/g"
	parent   protoID
	children []protoID

	source          optional[string]
	lineDefined     optional[int]
	lastLineDefined optional[int]
	numParams       optional[int]
	isVararg        optional[int]
	maxStackSize    optional[int]

	constants []luac.Constant
	upvalues  []luac.Upvalue
	code      []uint32
	lines     []int
	locals    []luac.LocalVar
}

func newFunction(name string, parent protoID) *function {
	return &function{name: name, parent: parent}
}

// processFunctionDirective reads the arguments of d and applies them to f.
// at is the directive token.
func (f *function) processFunctionDirective(a *Assembler, d Directive, at Token) error {
	switch d {
	case DirSource:
		if f.source.set {
			return duplicate(at, d)
		}
		s, err := a.getString()
		if err != nil {
			return err
		}
		f.source.Set(s)
	case DirLineDefined:
		return setInteger(a, &f.lineDefined, d, at)
	case DirLastLineDefined:
		return setInteger(a, &f.lastLineDefined, d, at)
	case DirNumParams:
		return setByte(a, &f.numParams, d, at)
	case DirIsVararg:
		return setByte(a, &f.isVararg, d, at)
	case DirMaxStackSize:
		return setByte(a, &f.maxStackSize, d, at)
	case DirConstant:
		if _, err := a.getName(); err != nil {
			return err
		}
		tok, err := a.next()
		if err != nil {
			return err
		}
		k, err := parseConstant(tok)
		if err != nil {
			return err
		}
		f.constants = append(f.constants, k)
	case DirLine:
		line, err := a.getInteger()
		if err != nil {
			return err
		}
		f.lines = append(f.lines, line)
	case DirLocal:
		var local luac.LocalVar
		var err error
		if local.Name, err = a.getString(); err != nil {
			return err
		}
		if local.Begin, err = a.getInteger(); err != nil {
			return err
		}
		if local.End, err = a.getInteger(); err != nil {
			return err
		}
		f.locals = append(f.locals, local)
	case DirUpvalue:
		if len(f.upvalues) == math.MaxUint8 {
			return errorAt(at.Pos, "Too many upvalues in function %q (limit %d)", f.name, math.MaxUint8)
		}
		var up luac.Upvalue
		var err error
		if up.Name, err = a.getName(); err != nil {
			return err
		}
		if up.Index, err = a.getInteger(); err != nil {
			return err
		}
		if up.InStack, err = a.getBoolean(); err != nil {
			return err
		}
		f.upvalues = append(f.upvalues, up)
	default:
		fault("unhandled function directive %s", d)
	}
	return nil
}

func duplicate(at Token, d Directive) *Error {
	return errorAt(at.Pos, "Duplicate %s directive", d)
}

func setInteger(a *Assembler, o *optional[int], d Directive, at Token) error {
	if o.set {
		return duplicate(at, d)
	}
	v, err := a.getInteger()
	if err != nil {
		return err
	}
	o.Set(v)
	return nil
}

// setByte is setInteger for fields stored in one byte of the chunk.
func setByte(a *Assembler, o *optional[int], d Directive, at Token) error {
	if o.set {
		return duplicate(at, d)
	}
	v, err := a.getInteger()
	if err != nil {
		return err
	}
	if v < 0 || v > math.MaxUint8 {
		return errorAt(a.tok.Pos, "Value %d out of range for %s", v, d)
	}
	o.Set(v)
	return nil
}

// parseConstant converts the value token of a .constant directive. Quoted
// tokens are strings; anything else must be a number literal.
func parseConstant(tok Token) (luac.Constant, error) {
	if tok.Type == TokenString {
		s, err := luac.Unquote(tok.Literal)
		if err != nil {
			return luac.Constant{}, errorAt(tok.Pos, "%v", err)
		}
		return luac.StringConstant(s), nil
	}
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		faultAt(tok.Pos, "constant value %q is neither a string nor a number", tok.Literal)
	}
	return luac.NumberConstant(v), nil
}

// processOp reads the operands of op and appends the packed word to f.
func (f *function) processOp(a *Assembler, op bytecode.Opcode, at Token) error {
	if !f.maxStackSize.set {
		return errorAt(at.Pos, "Expected .maxstacksize before code")
	}
	layout := bytecode.Lua51
	if !layout.Op.Check(int(op)) {
		fault("opcode %d does not fit the op field", op)
	}
	word := layout.Op.Encode(int(op))

	for _, operand := range op.Operands() {
		var (
			field bytecode.Field
			v     int
			err   error
		)
		switch operand {
		case bytecode.OperandA:
			field = layout.A
			v, err = a.getInteger()
		case bytecode.OperandAR:
			field = layout.A
			v, err = a.getRegister()
		case bytecode.OperandB:
			field = layout.B
			v, err = a.getInteger()
		case bytecode.OperandBR:
			field = layout.B
			v, err = a.getRegister()
		case bytecode.OperandC:
			field = layout.C
			v, err = a.getInteger()
		case bytecode.OperandCR:
			field = layout.C
			v, err = a.getRegister()
		case bytecode.OperandBRK, bytecode.OperandCRK:
			field = layout.B
			if operand == bytecode.OperandCRK {
				field = layout.C
			}
			var constant bool
			v, constant, err = a.getRegisterOrConstant()
			if err == nil {
				if v < 0 || v > layout.MaxRK() {
					return outOfRange(a, operand, op, v)
				}
				if constant {
					v |= layout.RKBit
				}
			}
		case bytecode.OperandBx:
			field = layout.Bx
			v, err = a.getInteger()
		case bytecode.OperandBxK:
			field = layout.Bx
			v, err = a.getConstant()
		case bytecode.OperandSBx:
			field = layout.Bx
			var sbx int
			sbx, err = a.getInteger()
			if err == nil {
				if lo, hi := layout.SBxRange(); sbx < lo || sbx > hi {
					return outOfRange(a, operand, op, sbx)
				}
				v = sbx + layout.SBxBias
			}
		default:
			fault("unhandled operand format %s", operand)
		}
		if err != nil {
			return err
		}
		if !field.Check(v) {
			return outOfRange(a, operand, op, v)
		}
		word |= field.Encode(v)
	}

	f.code = append(f.code, word)
	return nil
}

func outOfRange(a *Assembler, operand bytecode.OperandFormat, op bytecode.Opcode, v int) *Error {
	return errorAt(a.tok.Pos, "Operand %s out of range in %q: %d", operand.Field(), op.String(), v)
}

// build converts f and its children into a luac.Function.
func (f *function) build(c *chunk) (*luac.Function, error) {
	for _, req := range []struct {
		d   Directive
		set bool
	}{
		{DirSource, f.source.set},
		{DirLineDefined, f.lineDefined.set},
		{DirLastLineDefined, f.lastLineDefined.set},
		{DirNumParams, f.numParams.set},
		{DirIsVararg, f.isVararg.set},
		{DirMaxStackSize, f.maxStackSize.set},
	} {
		if !req.set {
			return nil, &Error{Msg: fmt.Sprintf("Missing %s directive in function %q", req.d, f.name)}
		}
	}

	out := &luac.Function{
		Source:          f.source.value,
		LineDefined:     f.lineDefined.value,
		LastLineDefined: f.lastLineDefined.value,
		NumParams:       uint8(f.numParams.value),
		IsVararg:        uint8(f.isVararg.value),
		MaxStackSize:    uint8(f.maxStackSize.value),
		Code:            f.code,
		Constants:       f.constants,
		LineInfo:        f.lines,
		Locals:          f.locals,
		Upvalues:        f.upvalues,
		Functions:       make([]*luac.Function, 0, len(f.children)),
	}
	for _, id := range f.children {
		child, err := c.funcs[id].build(c)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, child)
	}
	return out, nil
}
