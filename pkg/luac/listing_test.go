package luac

import (
	"strings"
	"testing"
)

func TestDisassembleHeader(t *testing.T) {
	out := sampleChunk(stockHeader()).Disassemble()
	for _, want := range []string{
		".version 5.1\n",
		".format 0\n",
		".endianness LITTLE\n",
		".int_size 4\n",
		".size_t_size 4\n",
		".instruction_size 4\n",
		".number_format float 8\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q", want)
		}
	}
}

func TestDisassembleFunctions(t *testing.T) {
	out := sampleChunk(stockHeader()).Disassemble()
	for _, want := range []string{
		".function main\n",
		`.source "@sample.lua"`,
		".lastlinedefined -1\n",
		".constant k0 \"print\"\n",
		".constant k1 42\n",
		`.constant k2 "a\000b\n"`,
		"loadk r0 k1",
		`k1 = 42`,
		".function main/f0\n",
		".constant k0 -0.25\n",
		`.local "a" 0 1`,
		`.upvalue "up" 0 false`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}

	// The parent body is complete before its first child is declared.
	if strings.Index(out, "return r0 1") > strings.Index(out, ".function main/f0") {
		t.Error("main code listed after nested function declaration")
	}
}

func TestDescribeConstant(t *testing.T) {
	tests := []struct {
		k    Constant
		want string
	}{
		{NumberConstant(3.5), "3.5"},
		{NumberConstant(1e100), "1e+100"},
		{StringConstant("x y"), `"x y"`},
	}
	for _, tt := range tests {
		if got := tt.k.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
