package listing

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/chazu/luasm/pkg/luac"
)

func testChunk() *luac.Chunk {
	child := &luac.Function{
		LineDefined:     2,
		LastLineDefined: 4,
		NumParams:       1,
		MaxStackSize:    2,
		Code:            []uint32{0x0080001E},
		Upvalues:        []luac.Upvalue{{Name: "up"}},
	}
	main := &luac.Function{
		Source:       "@t.lua",
		IsVararg:     2,
		MaxStackSize: 2,
		Code:         []uint32{0x00004001, 0x00000024, 0x0080001E},
		Constants:    []luac.Constant{luac.StringConstant("print"), luac.NumberConstant(42)},
		Functions:    []*luac.Function{child},
		LineInfo:     []int{1, 1, 5},
		Locals:       []luac.LocalVar{{Name: "x", Begin: 0, End: 3}},
	}
	header := luac.Header{
		Endianness:      luac.LittleEndian,
		IntSize:         4,
		SizeTSize:       4,
		InstructionSize: 4,
		NumberSize:      8,
	}
	return &luac.Chunk{Header: header, Main: main}
}

func TestMarshalRoundTrip(t *testing.T) {
	c := testChunk()
	data, err := Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	doc, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	back, err := doc.ToChunk()
	if err != nil {
		t.Fatalf("ToChunk: %v", err)
	}

	want, _ := luac.Marshal(c)
	got, err := luac.Marshal(back)
	if err != nil {
		t.Fatalf("luac.Marshal: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("binary chunk changed across export:\ngot  % X\nwant % X", got, want)
	}
	if doc.Digest != sha256.Sum256(want) {
		t.Error("Digest does not match the binary chunk")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(testChunk())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, _ := Marshal(testChunk())
	if !bytes.Equal(a, b) {
		t.Error("two exports of the same chunk differ")
	}
}

func TestExportDecodesInstructions(t *testing.T) {
	doc, err := FromChunk(testChunk())
	if err != nil {
		t.Fatalf("FromChunk: %v", err)
	}
	ins := doc.Main.Code[0]
	if ins.Op != "loadk" || ins.A != 0 || ins.Bx != 1 || ins.Text != "loadk r0 k1" {
		t.Errorf("instruction = %+v", ins)
	}
	if doc.Header.Endianness != "LITTLE" {
		t.Errorf("endianness = %q", doc.Header.Endianness)
	}
	if len(doc.Main.Functions) != 1 || doc.Main.Functions[0].Path != "main/f0" {
		t.Errorf("children = %+v", doc.Main.Functions)
	}
}

func TestToChunkErrors(t *testing.T) {
	doc := &Chunk{Header: Header{Endianness: "MIDDLE"}, Main: &Function{}}
	if _, err := doc.ToChunk(); err == nil {
		t.Error("ToChunk accepted unknown endianness")
	}
	doc = &Chunk{Header: Header{Endianness: "BIG"}}
	if _, err := doc.ToChunk(); err == nil {
		t.Error("ToChunk accepted a chunk without main")
	}
	if _, err := Unmarshal([]byte{0xFF}); err == nil {
		t.Error("Unmarshal accepted garbage")
	}
}
