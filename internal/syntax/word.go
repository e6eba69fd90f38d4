package syntax

import (
	"strings"
	"unicode/utf8"

	"github.com/marcelocantos/sush/internal/scan"
)

// metaChars end an unquoted word.
const metaChars = " \t\n;&|()<>"

func (p *Parser) parseWord(b *scan.Buffer) *Word {
	w := &Word{}
	for b.Len() > 0 && strings.IndexByte(metaChars, b.At(0)) < 0 {
		sw := p.parseSubword(b)
		if sw == nil {
			break
		}
		w.Subwords = append(w.Subwords, sw)
		w.text += sw.Text()
	}
	if b.Failed() || len(w.Subwords) == 0 {
		return nil
	}
	return w
}

func (p *Parser) parseSubword(b *scan.Buffer) Subword {
	switch b.At(0) {
	case '\'':
		if s := parseSingleQuoted(b); s != nil {
			return s
		}
		return nil
	case '"':
		if s := p.parseDoubleQuoted(b); s != nil {
			return s
		}
		return nil
	case '\\':
		if s := parseEscaped(b); s != nil {
			return s
		}
		return nil
	case '$':
		return p.parseDollar(b)
	}
	n := b.ScanUntil(0, metaChars+`'"\$`)
	text := b.Consume(n)
	return &Literal{Value: text, text: text}
}

// parseDollar parses $( ... ), a parameter, or a lone '$' as a literal.
func (p *Parser) parseDollar(b *scan.Buffer) Subword {
	if b.StartsWith("$(") {
		if s := p.ParseCommandSubstitution(b); s != nil {
			return s
		}
		return nil
	}
	if s := parseParameter(b); s != nil {
		return s
	}
	if b.Failed() {
		return nil
	}
	text := b.Consume(1)
	return &Literal{Value: text, text: text}
}

func parseSingleQuoted(b *scan.Buffer) *SingleQuoted {
	n := b.ScanUntil(1, "'")
	if 1+n >= b.Len() {
		b.FailIncomplete("sush: unexpected EOF while looking for matching `''")
		return nil
	}
	text := b.Consume(n + 2)
	return &SingleQuoted{Value: text[1 : n+1], text: text}
}

// parseEscaped parses a backslash and the character after it. A backslash
// ending the input, or escaping the final newline, continues on the next line.
func parseEscaped(b *scan.Buffer) *Escaped {
	rest := b.CharsFrom(1)
	if rest == "" || rest == "\n" {
		b.FailIncomplete(errEOF)
		return nil
	}
	_, size := utf8.DecodeRuneInString(rest)
	text := b.Consume(1 + size)
	return &Escaped{Char: text[1:], text: text}
}

func (p *Parser) parseDoubleQuoted(b *scan.Buffer) *DoubleQuoted {
	d := &DoubleQuoted{text: b.Consume(1)}
	for {
		if b.Len() == 0 {
			b.FailIncomplete("sush: unexpected EOF while looking for matching `\"'")
			return nil
		}
		if b.StartsWith(`"`) {
			d.text += b.Consume(1)
			return d
		}
		var sw Subword
		if b.StartsWith("$") {
			sw = p.parseDollar(b)
			if sw == nil {
				return nil
			}
		} else {
			text := b.Consume(b.ScanUntilEscape(0, `"$`))
			sw = &Literal{Value: unquoteDouble(text), text: text}
		}
		d.Parts = append(d.Parts, sw)
		d.text += sw.Text()
	}
}

// unquoteDouble removes the backslashes that are special inside double
// quotes. Others are kept.
func unquoteDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\n':
			i++
		case '$', '`', '"', '\\':
			i++
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
		}
	}
	return sb.String()
}

// parseParameter parses $name, $?, $1 or ${...}.
func parseParameter(b *scan.Buffer) *Parameter {
	if b.StartsWith("${") {
		n := b.ScanNameOrParameter(2)
		if n > 0 && b.At(2+n) == '}' {
			text := b.Consume(n + 3)
			return &Parameter{Name: text[2 : 2+n], text: text}
		}
		if end := b.ScanUntil(2, "}"); 2+end == b.Len() {
			b.FailIncomplete("sush: unexpected EOF while looking for matching `}'")
		} else {
			b.Fail("sush: " + b.CharsFrom(0)[:end+3] + ": bad substitution")
		}
		return nil
	}
	n := b.ScanNameOrParameter(1)
	if n == 0 {
		return nil
	}
	text := b.Consume(n + 1)
	return &Parameter{Name: text[1:], text: text}
}

// ParseCommandSubstitution parses $( ... ). On failure nothing usable is
// returned and the buffer's error slot says why.
func (p *Parser) ParseCommandSubstitution(b *scan.Buffer) *CommandSubstitution {
	if !b.StartsWith("$(") {
		return nil
	}
	s := &CommandSubstitution{text: b.Consume(1)}
	c := p.parseParenCommand(b, false)
	if c == nil {
		if !b.Failed() {
			failNear(b)
		}
		return nil
	}
	s.Command = c
	s.text += c.text
	return s
}
