package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleEmpty(t *testing.T) {
	if out := Disassemble(nil, nil); out != "" {
		t.Errorf("Disassemble(nil) = %q, want empty", out)
	}
}

func TestDisassembleSimple(t *testing.T) {
	code := []uint32{0x00004001, 0x0080001E}
	lines := DisassembleToLines(code, nil)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "loadk r0 k1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "; [1]") {
		t.Errorf("line 1 missing pc comment: %q", lines[1])
	}
}

func TestDisassembleJumpTarget(t *testing.T) {
	// jmp -1 at pc 2 jumps to pc 2
	code := []uint32{0x0080001E, 0x0080001E, 0x7FFF8016}
	out := Disassemble(code, nil)
	if !strings.Contains(out, "jmp -1") || !strings.Contains(out, "to [2]") {
		t.Errorf("missing jump target:\n%s", out)
	}
}

func TestDisassembleWithConstants(t *testing.T) {
	names := func(k int) string {
		if k == 1 {
			return `"hello"`
		}
		return ""
	}
	out := Disassemble([]uint32{0x00004001}, names)
	if !strings.Contains(out, `k1 = "hello"`) {
		t.Errorf("missing constant annotation:\n%s", out)
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	out := DisassembleInstruction(0, Instruction(0x3F), nil)
	if !strings.HasPrefix(out, "; unknown instruction") {
		t.Errorf("unknown opcode = %q", out)
	}
}
