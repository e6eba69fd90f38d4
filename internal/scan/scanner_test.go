package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferConsume(t *testing.T) {
	b := New("echo hi")
	assert.Equal(t, 7, b.Len())
	assert.Equal(t, "echo", b.Consume(4))
	assert.Equal(t, " hi", b.Remaining())
	assert.True(t, b.StartsWith(" h"))
	assert.Equal(t, byte('h'), b.At(1))
	assert.Equal(t, "i", b.CharsFrom(2))
	assert.Equal(t, "", b.CharsFrom(10))
}

func TestBufferConsumeTooMuchPanics(t *testing.T) {
	b := New("ab")
	assert.Panics(t, func() { b.Consume(3) })
}

func TestBufferErrorOverwrites(t *testing.T) {
	b := New("x")
	assert.False(t, b.Failed())
	b.Fail("first")
	b.FailIncomplete("second")
	require.True(t, b.Failed())
	assert.Equal(t, "second", b.Err().Error())
	assert.True(t, b.Err().Incomplete)
	b.ClearErr()
	assert.Nil(t, b.Err())
}

func TestBufferForkCommit(t *testing.T) {
	b := New("abc def")
	f := b.Fork()
	f.Consume(4)
	assert.Equal(t, 7, b.Len(), "fork must not consume from the original")
	f.Fail("oops")
	b.Commit(f)
	assert.Equal(t, "def", b.Remaining())
	assert.True(t, b.Failed())
}

func TestScanComment(t *testing.T) {
	cases := map[string]int{
		"# note\necho": 6,
		"#":            1,
		"echo # x":     0,
		" # x":         0,
		"":             0,
	}
	for in, want := range cases {
		assert.Equal(t, want, New(in).ScanComment(0), "input %q", in)
	}
}

func TestScanBlank(t *testing.T) {
	assert.Equal(t, 3, New(" \t x").ScanBlank(0))
	assert.Equal(t, 0, New("x ").ScanBlank(0))
	assert.Equal(t, 1, New("x y").ScanBlank(1))
}

func TestScanName(t *testing.T) {
	assert.Equal(t, 3, New("_x9=").ScanName(0))
	assert.Equal(t, 0, New("9x").ScanName(0))
	assert.Equal(t, 3, New("$abc").ScanName(1))
	assert.Equal(t, 0, New("").ScanName(0))
}

func TestScanInteger(t *testing.T) {
	cases := map[string]int{
		"-":    0,
		"-12a": 3,
		"007":  3,
		"x1":   0,
		"--1":  0,
	}
	for in, want := range cases {
		assert.Equal(t, want, New(in).ScanInteger(0), "input %q", in)
	}
}

func TestScanParameter(t *testing.T) {
	assert.Equal(t, 1, New("?x").ScanParameter(0))
	assert.Equal(t, 1, New("$$").ScanParameter(0))
	assert.Equal(t, 2, New("12a").ScanParameter(0))
	assert.Equal(t, 0, New("abc").ScanParameter(0))
	assert.Equal(t, 3, New("abc").ScanNameOrParameter(0))
	assert.Equal(t, 0, New("").ScanParameter(0))
}

func TestScanUntilEscape(t *testing.T) {
	// a\"b" stops at the final quote, not the escaped one.
	assert.Equal(t, 4, New(`a\"b"`).ScanUntilEscape(0, `"`))
	// no unescaped delimiter: the whole remainder
	assert.Equal(t, 4, New(`a\"b`).ScanUntilEscape(0, `"`))
	// escaped backslash does not escape the quote after it
	assert.Equal(t, 3, New(`a\\"`).ScanUntilEscape(0, `"`))
	assert.Equal(t, 2, New(`xxab$`).ScanUntilEscape(2, `$"`))
}

func TestScanControlOp(t *testing.T) {
	cases := []struct {
		in string
		n  int
		op ControlOp
	}{
		{";;&rest", 3, SemiSemiAnd},
		{";;rest", 2, DoubleSemicolon},
		{"&>file", 0, NoControl},
		{"&&\n", 3, And},
		{"||x", 2, Or},
		{"|&\n", 3, PipeAnd},
		{"& x", 1, BgAnd},
		{"&", 1, BgAnd},
		{";\n", 1, Semicolon},
		{"\n\n", 1, NewLine},
		{"|x", 1, Pipe},
		{"(", 1, LeftParen},
		{")", 1, RightParen},
		{"x", 0, NoControl},
		{"", 0, NoControl},
	}
	for _, tc := range cases {
		n, op := New(tc.in).ScanControlOp(0)
		assert.Equal(t, tc.n, n, "input %q", tc.in)
		assert.Equal(t, tc.op, op, "input %q", tc.in)
	}
}

func TestScanAndOr(t *testing.T) {
	assert.Equal(t, 2, New("&& b").ScanAndOr(0))
	assert.Equal(t, 3, New("||\nb").ScanAndOr(0))
	assert.Equal(t, 0, New("| b").ScanAndOr(0))
	assert.Equal(t, 0, New("; b").ScanAndOr(0))
}

func TestScanRedirect(t *testing.T) {
	cases := []struct {
		in string
		n  int
		op RedirectOp
	}{
		{"<<<x", 3, HereStr},
		{"&>>f", 3, AndAppend},
		{">>f", 2, Append},
		{"<<EOF", 2, HereDoc},
		{">&2", 2, OutputAnd},
		{"&>f", 2, AndOutput},
		{"<>f", 2, InOut},
		{">f", 1, Output},
		{"<f", 1, Input},
		{"f", 0, NoRedirect},
	}
	for _, tc := range cases {
		n, op := New(tc.in).ScanRedirect(0)
		assert.Equal(t, tc.n, n, "input %q", tc.in)
		assert.Equal(t, tc.op, op, "input %q", tc.in)
	}
}

func TestOperatorStrings(t *testing.T) {
	assert.Equal(t, ";;&", SemiSemiAnd.String())
	assert.Equal(t, "|&", PipeAnd.String())
	assert.Equal(t, "<<<", HereStr.String())
	assert.Equal(t, "", NoRedirect.String())
}
