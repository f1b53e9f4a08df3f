package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/luasm/assembler"
	"github.com/chazu/luasm/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "luasm-lsp"

var log = commonlog.GetLogger("luasm.server")

// LspServer provides diagnostics, completion, hover, symbols and constant
// definitions for assembler source files.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "luasm LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.DocumentSymbolProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	k, ok := constantIndex(word)
	if !ok {
		return nil, nil
	}
	tok, ok := constantDefinition(text, int(params.Position.Line)+1, k)
	if !ok {
		return nil, nil
	}
	return protocol.Location{URI: uri, Range: tokenRange(tok)}, nil
}

func (s *LspServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return functionSymbols(text), nil
}

// complete returns directives and mnemonics starting with prefix.
func complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	if strings.HasPrefix(prefix, ".") {
		for _, tok := range assembler.DirectiveTokens() {
			if !strings.HasPrefix(tok, prefix) {
				continue
			}
			kind := protocol.CompletionItemKindKeyword
			detail := "directive"
			if d, ok := assembler.LookupDirective(tok); ok {
				detail = d.Info().Usage
			}
			label := tok
			items = append(items, protocol.CompletionItem{
				Label:      label,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &label,
			})
		}
		return items
	}

	lowerPrefix := strings.ToLower(prefix)
	for _, op := range bytecode.AllOpcodes() {
		name := op.String()
		if !strings.HasPrefix(name, lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindFunction
		detail := operandSynopsis(op)
		label := name
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func operandSynopsis(op bytecode.Opcode) string {
	formats := op.Operands()
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

// hover describes a mnemonic or directive.
func hover(word string) *protocol.Hover {
	var b strings.Builder
	if d, ok := assembler.LookupDirective(word); ok {
		fmt.Fprintf(&b, "**%s** %s\n", d, d.Info().Usage)
	} else if op, ok := bytecode.Lookup(word); ok {
		fmt.Fprintf(&b, "**%s** (opcode %d)\n\n", op, op)
		for _, f := range op.Operands() {
			fmt.Fprintf(&b, "- `%s` in field %s\n", f, f.Field())
		}
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// constantIndex parses "k12"-style words.
func constantIndex(word string) (int, bool) {
	if len(word) < 2 || word[0] != 'k' {
		return 0, false
	}
	k, err := strconv.Atoi(word[1:])
	if err != nil || k < 0 {
		return 0, false
	}
	return k, true
}

// constantDefinition finds the .constant directive defining constant k in
// the function declared last at or before line (1-based).
func constantDefinition(text string, line, k int) (assembler.Token, bool) {
	var consts []assembler.Token
	for _, tok := range assembler.Tokenize(text) {
		switch tok.Literal {
		case ".function":
			if tok.Pos.Line > line {
				return pick(consts, k)
			}
			consts = consts[:0]
		case ".constant":
			consts = append(consts, tok)
		}
	}
	return pick(consts, k)
}

func pick(toks []assembler.Token, i int) (assembler.Token, bool) {
	if i >= len(toks) {
		return assembler.Token{}, false
	}
	return toks[i], true
}

// functionSymbols lists the .function declarations of text.
func functionSymbols(text string) []protocol.DocumentSymbol {
	symbols := []protocol.DocumentSymbol{}
	toks := assembler.Tokenize(text)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Literal != ".function" {
			continue
		}
		name := toks[i+1]
		r := protocol.Range{Start: tokenRange(toks[i]).Start, End: tokenRange(name).End}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           name.Literal,
			Kind:           protocol.SymbolKindFunction,
			Range:          r,
			SelectionRange: tokenRange(name),
		})
	}
	return symbols
}

// diagnose assembles text and reports the first error, if any. Faults raised
// by the assembler are reported rather than crashing the server.
func diagnose(text string) (diagnostics []protocol.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*assembler.Fault)
			if !ok {
				panic(r)
			}
			log.Warningf("assembler fault: %s", f.Msg)
			diagnostics = []protocol.Diagnostic{newDiagnostic(positionRange(text, f.Pos), f.Error())}
		}
	}()

	_, err := assembler.Parse(text)
	if err == nil {
		return nil
	}
	var aerr *assembler.Error
	if !errors.As(err, &aerr) {
		return []protocol.Diagnostic{newDiagnostic(protocol.Range{}, err.Error())}
	}
	return []protocol.Diagnostic{newDiagnostic(positionRange(text, aerr.Pos), aerr.Msg)}
}

func newDiagnostic(r protocol.Range, msg string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text)
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// tokenRange converts a token to an LSP range. Columns count bytes, which
// matches UTF-16 units for ASCII source.
func tokenRange(tok assembler.Token) protocol.Range {
	return protocol.Range{Start: lspPosition(tok.Pos), End: lspPosition(tok.End())}
}

// positionRange returns the range of the token starting at pos, or an empty
// range at the start of the document when pos is unset.
func positionRange(text string, pos assembler.Position) protocol.Range {
	if !pos.IsValid() {
		return protocol.Range{}
	}
	l := assembler.NewLexer(text[pos.Offset:])
	tok := l.NextToken()
	if tok.Type == assembler.TokenEOF {
		p := lspPosition(pos)
		return protocol.Range{Start: p, End: p}
	}
	end := pos
	end.Column += len(tok.Literal)
	return protocol.Range{Start: lspPosition(pos), End: lspPosition(end)}
}

func lspPosition(p assembler.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(p.Column - 1),
	}
}

// --- Text extraction helpers ---

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}

// extractPrefix returns the word fragment ending at the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the word
	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the whole word under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}

	// Find end
	end := col
	for end < len(line) && isWordChar(rune(line[end])) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
