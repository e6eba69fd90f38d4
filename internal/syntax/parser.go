package syntax

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/marcelocantos/sush/internal/scan"
)

const (
	// DefaultMaxDepth bounds nesting of ( ... ) and $( ... ).
	DefaultMaxDepth = 64

	errEOF = "sush: syntax error: unexpected end of file"
)

// Parser carries state shared by one descent: the nesting guard.
// The zero value has no depth limit.
type Parser struct {
	MaxDepth int
	depth    int
}

// NewParser returns a parser with the given nesting limit.
func NewParser(maxDepth int) *Parser {
	return &Parser{MaxDepth: maxDepth}
}

// TopLevel parses the next statement from b. It returns nil at end of input
// and after error recovery: when every alternative fails, the rest of b is
// discarded and the recorded reason written to errw as is.
func (p *Parser) TopLevel(b *scan.Buffer, errw io.Writer) Element {
	if b.Len() == 0 {
		return nil
	}
	if e := p.element(b); e != nil && !b.Failed() {
		return e
	}
	if !b.Failed() {
		failNear(b)
	}
	b.Consume(b.Len())
	fmt.Fprintln(errw, b.Err().Reason)
	b.ClearErr()
	return nil
}

// NeedsMore reports whether the next statement in b is cut short by the end
// of input, so that a line reader should Feed another line before calling
// TopLevel. b is left untouched.
func (p *Parser) NeedsMore(b *scan.Buffer) bool {
	if b.Len() == 0 {
		return false
	}
	f := b.Fork()
	p.element(f)
	return f.Failed() && f.Err().Incomplete
}

func (p *Parser) element(b *scan.Buffer) Element {
	if e := parseBlankPart(b); e != nil {
		return e
	}
	if e := p.parseSetVariables(b); e != nil {
		return e
	}
	if e := p.ParseJob(b); e != nil {
		return e
	}
	return nil
}

func parseBlankPart(b *scan.Buffer) *BlankPart {
	e := &BlankPart{}
	for eatBlankLine(b, &e.text) {
	}
	if e.text == "" {
		return nil
	}
	return e
}

// eatBlankLine consumes blanks, a comment and one newline. It reports
// whether a newline was consumed; whatever it consumed is appended to text.
func eatBlankLine(b *scan.Buffer, text *string) bool {
	n := b.ScanBlank(0)
	n += b.ScanComment(n)
	if b.At(n) != '\n' {
		*text += b.Consume(n)
		return false
	}
	*text += b.Consume(n + 1)
	return true
}

func eatBlank(b *scan.Buffer, text *string) {
	*text += b.Consume(b.ScanBlank(0))
}

// failNear records a syntax error naming the token at the cursor.
func failNear(b *scan.Buffer) {
	i := b.ScanBlank(0)
	if i == b.Len() {
		b.FailIncomplete(errEOF)
		return
	}
	b.Fail(fmt.Sprintf("sush: syntax error near unexpected token `%s'", tokenAt(b, i)))
}

// failNewline is failNear for constructs that a newline cannot continue.
func failNewline(b *scan.Buffer) {
	if b.ScanBlank(0) == b.Len() {
		b.Fail("sush: syntax error near unexpected token `newline'")
		return
	}
	failNear(b)
}

func tokenAt(b *scan.Buffer, i int) string {
	if n, op := b.ScanControlOp(i); n > 0 {
		if op == scan.NewLine {
			return "newline"
		}
		return op.String()
	}
	if n, op := b.ScanRedirect(i); n > 0 {
		return op.String()
	}
	_, size := utf8.DecodeRuneInString(b.CharsFrom(i))
	return b.CharsFrom(i)[:size]
}
