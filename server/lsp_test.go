package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testSource = `.version 5.1
.format 0
.endianness LITTLE
.int_size 4
.size_t_size 4
.instruction_size 4
.number_format float 8
.function main
.source "@t.lua"
.linedefined 0
.lastlinedefined 0
.numparams 0
.is_vararg 2
.maxstacksize 2
.constant k0 "print"
.constant k1 "hello"
getglobal r0 k0
loadk r1 k1
return r0 1
.function main/f
.source ""
.linedefined 1
.lastlinedefined 2
.numparams 0
.is_vararg 0
.maxstacksize 1
.constant k0 7
loadk r0 k0
return r0 1
`

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"loadk r0 k1", protocol.Position{Line: 0, Character: 4}, "load"},
		{".func", protocol.Position{Line: 0, Character: 5}, ".func"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"first line\nsecond line\nmov", protocol.Position{Line: 2, Character: 3}, "mov"},
		{"move r0 r1", protocol.Position{Line: 0, Character: 0}, ""},
		{"move r0 r1", protocol.Position{Line: 0, Character: 5}, ""},
		{"short", protocol.Position{Line: 5, Character: 0}, ""},
		{"move", protocol.Position{Line: 0, Character: 99}, "move"},
	}
	for _, tt := range tests {
		if got := extractPrefix(tt.text, tt.pos); got != tt.want {
			t.Errorf("extractPrefix(%q, %v) = %q, want %q", tt.text, tt.pos, got, tt.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"loadk r0 k1", protocol.Position{Line: 0, Character: 2}, "loadk"},
		{"loadk r0 k1", protocol.Position{Line: 0, Character: 11}, "k1"},
		{"loadk r0 k1", protocol.Position{Line: 0, Character: 7}, "r0"},
		{".maxstacksize 2", protocol.Position{Line: 0, Character: 3}, ".maxstacksize"},
		{".is_vararg 2", protocol.Position{Line: 0, Character: 5}, ".is_vararg"},
		{"a  b", protocol.Position{Line: 0, Character: 2}, ""},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"one\ntwo", protocol.Position{Line: 1, Character: 1}, "two"},
		{"short", protocol.Position{Line: 5, Character: 0}, ""},
	}
	for _, tt := range tests {
		if got := extractWord(tt.text, tt.pos); got != tt.want {
			t.Errorf("extractWord(%q, %v) = %q, want %q", tt.text, tt.pos, got, tt.want)
		}
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should point to true")
	}
	if p := boolPtr(false); p == nil || *p {
		t.Error("boolPtr(false) should point to false")
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDiagnoseClean(t *testing.T) {
	if d := diagnose(testSource); len(d) != 0 {
		t.Errorf("diagnose(valid) = %+v, want none", d)
	}
}

func TestDiagnosePosition(t *testing.T) {
	src := strings.Replace(testSource, "loadk r1 k1", "loadk r1 bogus", 1)
	d := diagnose(src)
	if len(d) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(d))
	}
	want := protocol.Range{
		Start: protocol.Position{Line: 17, Character: 9},
		End:   protocol.Position{Line: 17, Character: 14},
	}
	if d[0].Range != want {
		t.Errorf("range = %+v, want %+v", d[0].Range, want)
	}
	if d[0].Message != `Expected constant, got "bogus"` {
		t.Errorf("message = %q", d[0].Message)
	}
	if d[0].Severity == nil || *d[0].Severity != protocol.DiagnosticSeverityError {
		t.Error("severity should be error")
	}
}

func TestDiagnoseMissingDirective(t *testing.T) {
	src := strings.Replace(testSource, ".maxstacksize 1\n", "", 1)
	src = strings.Replace(src, "loadk r0 k0\nreturn r0 1\n", "", 1)
	d := diagnose(src)
	if len(d) != 1 || !strings.Contains(d[0].Message, `Missing .maxstacksize directive in function "main/f"`) {
		t.Fatalf("diagnose = %+v", d)
	}
	if d[0].Range != (protocol.Range{}) {
		t.Errorf("range = %+v, want document start", d[0].Range)
	}
}

func TestDiagnoseFault(t *testing.T) {
	src := strings.Replace(testSource, `.constant k1 "hello"`, ".constant k1 hello", 1)
	d := diagnose(src)
	if len(d) != 1 || !strings.Contains(d[0].Message, "internal error") {
		t.Fatalf("diagnose = %+v", d)
	}
	if d[0].Range.Start.Line != 15 || d[0].Range.Start.Character != 13 {
		t.Errorf("range = %+v, want line 15 character 13", d[0].Range)
	}
}

// ---------------------------------------------------------------------------
// Language features
// ---------------------------------------------------------------------------

func TestComplete(t *testing.T) {
	items := complete("lo")
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	if strings.Join(labels, ",") != "loadbool,loadk,loadnil" {
		t.Errorf("complete(lo) = %v", labels)
	}
	if items[1].Detail == nil || *items[1].Detail != "AR BxK" {
		t.Errorf("loadk detail = %v", items[1].Detail)
	}

	items = complete(".l")
	labels = labels[:0]
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	if strings.Join(labels, ",") != ".lastlinedefined,.line,.linedefined,.local" {
		t.Errorf("complete(.l) = %v", labels)
	}

	if items := complete("MO"); len(items) != 2 || items[0].Label != "mod" || items[1].Label != "move" {
		t.Errorf("complete(MO) = %+v", items)
	}
}

func TestHover(t *testing.T) {
	h := hover("loadk")
	if h == nil {
		t.Fatal("hover(loadk) = nil")
	}
	content := h.Contents.(protocol.MarkupContent)
	if !strings.Contains(content.Value, "**loadk** (opcode 1)") || !strings.Contains(content.Value, "`BxK` in field Bx") {
		t.Errorf("hover(loadk) = %q", content.Value)
	}

	h = hover(".upvalue")
	if h == nil || !strings.Contains(h.Contents.(protocol.MarkupContent).Value, "<name> <index> <instack>") {
		t.Errorf("hover(.upvalue) = %+v", h)
	}

	if hover("r0") != nil {
		t.Error("hover(r0) should be nil")
	}
}

func TestConstantDefinition(t *testing.T) {
	lsp := NewLSP("test")
	lsp.docs["file:///t.lasm"] = testSource

	define := func(line, char uint32) any {
		t.Helper()
		loc, err := lsp.textDocumentDefinition(nil, &protocol.DefinitionParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: "file:///t.lasm"},
				Position:     protocol.Position{Line: line, Character: char},
			},
		})
		if err != nil {
			t.Fatalf("definition error: %v", err)
		}
		return loc
	}

	// "loadk r1 k1" in main resolves to main's second constant.
	loc, ok := define(17, 10).(protocol.Location)
	if !ok || loc.Range.Start.Line != 15 {
		t.Errorf("definition of main k1 = %+v, want line 15", loc)
	}
	// "loadk r0 k0" in main/f resolves to main/f's constant.
	loc, ok = define(27, 10).(protocol.Location)
	if !ok || loc.Range.Start.Line != 26 {
		t.Errorf("definition of main/f k0 = %+v, want line 26", loc)
	}
	// Registers have no definition.
	if got := define(17, 7); got != nil {
		t.Errorf("definition of r1 = %+v, want nil", got)
	}
}

func TestFunctionSymbols(t *testing.T) {
	symbols := functionSymbols(testSource)
	if len(symbols) != 2 {
		t.Fatalf("got %d symbols, want 2", len(symbols))
	}
	if symbols[0].Name != "main" || symbols[1].Name != "main/f" {
		t.Errorf("symbols = %s, %s", symbols[0].Name, symbols[1].Name)
	}
	if symbols[1].SelectionRange.Start != (protocol.Position{Line: 19, Character: 10}) {
		t.Errorf("main/f selection = %+v", symbols[1].SelectionRange)
	}
}

func TestLSP_DocumentStore(t *testing.T) {
	lsp := NewLSP("test")

	// Simulate didOpen
	lsp.mu.Lock()
	lsp.docs["file:///test.lasm"] = "move r0 r1"
	lsp.mu.Unlock()

	text, ok := lsp.document("file:///test.lasm")
	if !ok {
		t.Error("document should be stored after open")
	}
	if text != "move r0 r1" {
		t.Errorf("document text = %q, want %q", text, "move r0 r1")
	}

	// Simulate didClose
	lsp.mu.Lock()
	delete(lsp.docs, "file:///test.lasm")
	lsp.mu.Unlock()

	if _, ok := lsp.document("file:///test.lasm"); ok {
		t.Error("document should be removed after close")
	}
}
