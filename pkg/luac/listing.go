package luac

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/luasm/pkg/bytecode"
)

// Disassemble returns the chunk as assembler source. For chunks written by
// Encode, assembling the result produces a byte-identical chunk. Nested
// functions, which have no names in the binary format, are named f0, f1, ...
// under their parent.
func (c *Chunk) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(".version 5.1\n")
	fmt.Fprintf(&sb, ".format %d\n", c.Header.Format)
	fmt.Fprintf(&sb, ".endianness %s\n", c.Header.Endianness)
	fmt.Fprintf(&sb, ".int_size %d\n", c.Header.IntSize)
	fmt.Fprintf(&sb, ".size_t_size %d\n", c.Header.SizeTSize)
	fmt.Fprintf(&sb, ".instruction_size %d\n", c.Header.InstructionSize)
	numberKind := "float"
	if c.Header.NumberIntegral {
		numberKind = "integer"
	}
	fmt.Fprintf(&sb, ".number_format %s %d\n", numberKind, c.Header.NumberSize)

	if c.Main != nil {
		c.Main.Walk("main", func(path string, f *Function) {
			sb.WriteByte('\n')
			f.disassemble(&sb, path)
		})
	}
	return sb.String()
}

// FormatNumber formats a number constant so that strconv.ParseFloat
// returns the same value.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Describe returns the constant in assembler syntax.
func (k Constant) Describe() string {
	switch k.Type {
	case ConstantNumber:
		return FormatNumber(k.Number)
	case ConstantString:
		return Quote(k.String)
	default:
		return k.Type.String()
	}
}

func (f *Function) disassemble(sb *strings.Builder, path string) {
	fmt.Fprintf(sb, ".function %s\n", path)
	fmt.Fprintf(sb, ".source %s\n", Quote(f.Source))
	fmt.Fprintf(sb, ".linedefined %d\n", f.LineDefined)
	fmt.Fprintf(sb, ".lastlinedefined %d\n", f.LastLineDefined)
	fmt.Fprintf(sb, ".numparams %d\n", f.NumParams)
	fmt.Fprintf(sb, ".is_vararg %d\n", f.IsVararg)
	fmt.Fprintf(sb, ".maxstacksize %d\n", f.MaxStackSize)

	if len(f.Upvalues) > 0 {
		sb.WriteByte('\n')
		for _, up := range f.Upvalues {
			fmt.Fprintf(sb, ".upvalue %s %d %t\n", Quote(up.Name), up.Index, up.InStack)
		}
	}

	if len(f.Constants) > 0 {
		sb.WriteByte('\n')
		for i, k := range f.Constants {
			fmt.Fprintf(sb, ".constant k%d %s\n", i, k.Describe())
		}
	}

	if len(f.LineInfo) > 0 {
		sb.WriteByte('\n')
		for pc, line := range f.LineInfo {
			fmt.Fprintf(sb, ".line %-8d ; [%d]\n", line, pc)
		}
	}

	if len(f.Locals) > 0 {
		sb.WriteByte('\n')
		for _, l := range f.Locals {
			fmt.Fprintf(sb, ".local %s %d %d\n", Quote(l.Name), l.Begin, l.End)
		}
	}

	if len(f.Code) > 0 {
		sb.WriteByte('\n')
		names := func(k int) string {
			if k < len(f.Constants) {
				return f.Constants[k].Describe()
			}
			return ""
		}
		sb.WriteString(bytecode.Disassemble(f.Code, names))
	}
}
