package luac

import (
	"strings"
	"testing"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		lit  string
		want string
	}{
		{`""`, ""},
		{`"hello"`, "hello"},
		{`"hello world"`, "hello world"},
		{`"a\"b"`, `a"b`},
		{`"back\\slash"`, `back\slash`},
		{`"line\nfeed\ttab"`, "line\nfeed\ttab"},
		{`"\065\66\0677"`, "ABC7"},
		{`"\x41\x7e"`, "A~"},
		{`"\255"`, "\xff"},
		{`"it\'s"`, "it's"},
	}
	for _, tt := range tests {
		got, err := Unquote(tt.lit)
		if err != nil {
			t.Errorf("Unquote(%s) error: %v", tt.lit, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unquote(%s) = %q, want %q", tt.lit, got, tt.want)
		}
	}
}

func TestUnquoteErrors(t *testing.T) {
	for _, lit := range []string{
		`hello`,
		`"open`,
		`"`,
		`"bad\q"`,
		`"big\256"`,
		`"short\x4"`,
		`"hex\xZZ"`,
		`"dangling\"`,
		`"in"side"`,
	} {
		if _, err := Unquote(lit); err == nil {
			t.Errorf("Unquote(%s) succeeded, want error", lit)
		}
	}
}

func TestQuotePrintableRoundTrip(t *testing.T) {
	var sb strings.Builder
	for c := byte(0x20); c < 0x7F; c++ {
		sb.WriteByte(c)
	}
	printable := sb.String()

	for _, s := range []string{"", "hello", "@main.lua", printable, `"quoted"`, `C:\path`} {
		got, err := Unquote(Quote(s))
		if err != nil {
			t.Errorf("Unquote(Quote(%q)) error: %v", s, err)
			continue
		}
		if got != s {
			t.Errorf("Unquote(Quote(%q)) = %q", s, got)
		}
	}
}

func TestQuoteAllBytesRoundTrip(t *testing.T) {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	s := string(b)
	q := Quote(s)
	for i := 0; i < len(q); i++ {
		if q[i] < 0x20 || q[i] >= 0x7F {
			t.Fatalf("Quote output contains unprintable byte 0x%02X", q[i])
		}
	}
	got, err := Unquote(q)
	if err != nil {
		t.Fatalf("Unquote error: %v", err)
	}
	if got != s {
		t.Error("Unquote(Quote(all bytes)) mismatch")
	}
}

func TestQuoteDigitAfterEscape(t *testing.T) {
	// \001 followed by '2' must not merge into \0012
	s := "\x012"
	got, err := Unquote(Quote(s))
	if err != nil || got != s {
		t.Errorf("round trip of %q = %q, %v", s, got, err)
	}
}
