package assembler

import "sort"

// DirectiveKind groups directives by what they act on.
type DirectiveKind uint8

const (
	// KindHeader directives set a chunk header field.
	KindHeader DirectiveKind = iota
	// KindNewFunction declares a function and makes it current.
	KindNewFunction
	// KindFunction directives act on the current function.
	KindFunction
)

// Directive is one of the fixed set of assembler directives.
type Directive uint8

const (
	DirFormat Directive = iota
	DirEndianness
	DirIntSize
	DirSizeTSize
	DirInstructionSize
	DirNumberFormat
	DirFunction
	DirSource
	DirLineDefined
	DirLastLineDefined
	DirNumParams
	DirIsVararg
	DirMaxStackSize
	DirConstant
	DirLine
	DirLocal
	DirUpvalue
)

// DirectiveInfo describes a directive.
type DirectiveInfo struct {
	Token string // e.g. ".format"
	Kind  DirectiveKind
	Usage string // argument synopsis
}

var directiveTable = [...]DirectiveInfo{
	DirFormat:          {".format", KindHeader, "<int>"},
	DirEndianness:      {".endianness", KindHeader, "LITTLE|BIG"},
	DirIntSize:         {".int_size", KindHeader, "<bytes>"},
	DirSizeTSize:       {".size_t_size", KindHeader, "<bytes>"},
	DirInstructionSize: {".instruction_size", KindHeader, "<bytes>"},
	DirNumberFormat:    {".number_format", KindHeader, "integer|float <bytes>"},
	DirFunction:        {".function", KindNewFunction, "<name>"},
	DirSource:          {".source", KindFunction, "<string>"},
	DirLineDefined:     {".linedefined", KindFunction, "<int>"},
	DirLastLineDefined: {".lastlinedefined", KindFunction, "<int>"},
	DirNumParams:       {".numparams", KindFunction, "<int>"},
	DirIsVararg:        {".is_vararg", KindFunction, "<int>"},
	DirMaxStackSize:    {".maxstacksize", KindFunction, "<int>"},
	DirConstant:        {".constant", KindFunction, "<name> <string|number>"},
	DirLine:            {".line", KindFunction, "<int>"},
	DirLocal:           {".local", KindFunction, "<string> <begin> <end>"},
	DirUpvalue:         {".upvalue", KindFunction, "<name> <index> <instack>"},
}

var directiveLookup = func() map[string]Directive {
	m := make(map[string]Directive, len(directiveTable))
	for d, info := range directiveTable {
		m[info.Token] = Directive(d)
	}
	return m
}()

// LookupDirective returns the directive spelled by tok. Directive tokens are
// case-sensitive.
func LookupDirective(tok string) (Directive, bool) {
	d, ok := directiveLookup[tok]
	return d, ok
}

// Info returns the directive's table entry.
func (d Directive) Info() DirectiveInfo {
	return directiveTable[d]
}

func (d Directive) String() string {
	return directiveTable[d].Token
}

// Kind returns the directive's kind.
func (d Directive) Kind() DirectiveKind {
	return directiveTable[d].Kind
}

// DirectiveTokens returns every directive token, sorted, including .version.
func DirectiveTokens() []string {
	toks := []string{".version"}
	for _, info := range directiveTable {
		toks = append(toks, info.Token)
	}
	sort.Strings(toks)
	return toks
}
