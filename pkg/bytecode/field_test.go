package bytecode

import "testing"

func TestFieldCheck(t *testing.T) {
	f := Field{Width: 8, Offset: 6}
	tests := []struct {
		v    int
		want bool
	}{
		{-1, false},
		{0, true},
		{1, true},
		{255, true},
		{256, false},
	}
	for _, tt := range tests {
		if got := f.Check(tt.v); got != tt.want {
			t.Errorf("Check(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestFieldEncodeDecode(t *testing.T) {
	fields := map[string]Field{
		"Op": Lua51.Op,
		"A":  Lua51.A,
		"B":  Lua51.B,
		"C":  Lua51.C,
		"Bx": Lua51.Bx,
	}
	for name, f := range fields {
		for _, v := range []int{0, 1, f.Max() / 2, f.Max()} {
			word := f.Encode(v)
			if got := f.Decode(word); got != v {
				t.Errorf("%s: Decode(Encode(%d)) = %d", name, v, got)
			}
		}
		if f.Check(f.Max() + 1) {
			t.Errorf("%s: Check(%d) = true, want false", name, f.Max()+1)
		}
	}
}

func TestLua51FieldsDoNotOverlap(t *testing.T) {
	abc := []Field{Lua51.Op, Lua51.A, Lua51.B, Lua51.C}
	var seen uint32
	for _, f := range abc {
		mask := f.Encode(f.Max())
		if seen&mask != 0 {
			t.Errorf("field at offset %d overlaps an earlier field", f.Offset)
		}
		seen |= mask
	}
	if seen != 0xFFFFFFFF {
		t.Errorf("iABC fields cover 0x%08X, want all 32 bits", seen)
	}

	bx := Lua51.Bx.Encode(Lua51.Bx.Max())
	if bx != Lua51.B.Encode(Lua51.B.Max())|Lua51.C.Encode(Lua51.C.Max()) {
		t.Errorf("Bx mask 0x%08X does not equal B|C", bx)
	}
}

func TestSBxRange(t *testing.T) {
	lo, hi := Lua51.SBxRange()
	if lo != -131071 || hi != 131072 {
		t.Errorf("SBxRange() = %d, %d; want -131071, 131072", lo, hi)
	}
}

func TestInstructionDecode(t *testing.T) {
	tests := []struct {
		word uint32
		want string
	}{
		{0x01000040, "move r1 r2"},
		{0x00004001, "loadk r0 k1"},
		{0x0080001E, "return r0 1"},
		{0x7FFF8016, "jmp -1"},
		{0x0140C04C, "add r1 r2 k3"},
		{uint32(OpEq) | 1<<6 | 0x100<<23 | 5<<14, "eq 1 k0 r5"},
	}
	for _, tt := range tests {
		if got := Instruction(tt.word).String(); got != tt.want {
			t.Errorf("Instruction(0x%08X).String() = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestInstructionFields(t *testing.T) {
	word := Lua51.Op.Encode(int(OpCall)) |
		Lua51.A.Encode(3) |
		Lua51.B.Encode(2) |
		Lua51.C.Encode(1)
	ins := Instruction(word)
	if ins.Opcode() != OpCall || ins.A() != 3 || ins.B() != 2 || ins.C() != 1 {
		t.Errorf("decoded %v A=%d B=%d C=%d", ins.Opcode(), ins.A(), ins.B(), ins.C())
	}
}
