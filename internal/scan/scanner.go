package scan

import "strings"

// Every scanner measures the token starting at offset from and returns its
// length in bytes, 0 meaning no match. None of them consume.

const specialParams = "?*@$#!-:"

// ScanBlank matches a run of spaces and tabs.
func (b *Buffer) ScanBlank(from int) int {
	s := b.CharsFrom(from)
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

// ScanComment matches from '#' up to, not including, the next newline.
func (b *Buffer) ScanComment(from int) int {
	if b.At(from) != '#' {
		return 0
	}
	return b.ScanUntil(from, "\n")
}

// ScanUntil matches up to the first character in delims.
func (b *Buffer) ScanUntil(from int, delims string) int {
	s := b.CharsFrom(from)
	if i := strings.IndexAny(s, delims); i >= 0 {
		return i
	}
	return len(s)
}

// ScanUntilEscape matches up to the first unescaped character in delims. A
// backslash escapes exactly the character after it. Running off the end is
// not an error: the remaining length is returned and the caller compares.
func (b *Buffer) ScanUntilEscape(from int, delims string) int {
	s := b.CharsFrom(from)
	escaped := false
	for i, ch := range s {
		if escaped || ch == '\\' {
			escaped = !escaped
			continue
		}
		if strings.ContainsRune(delims, ch) {
			return i
		}
	}
	return len(s)
}

func isNameHead(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// ScanName matches [A-Za-z_][A-Za-z0-9_]*.
func (b *Buffer) ScanName(from int) int {
	s := b.CharsFrom(from)
	if len(s) == 0 || !isNameHead(s[0]) {
		return 0
	}
	n := 1
	for n < len(s) && (isNameHead(s[n]) || isDigit(s[n])) {
		n++
	}
	return n
}

// ScanNumber matches a run of ASCII digits.
func (b *Buffer) ScanNumber(from int) int {
	s := b.CharsFrom(from)
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

// ScanParameter matches one special parameter character, or failing that a
// positional parameter number.
func (b *Buffer) ScanParameter(from int) int {
	if from >= b.Len() {
		return 0
	}
	if strings.IndexByte(specialParams, b.At(from)) >= 0 {
		return 1
	}
	return b.ScanNumber(from)
}

// ScanNameOrParameter matches whatever can follow '$'.
func (b *Buffer) ScanNameOrParameter(from int) int {
	if n := b.ScanParameter(from); n > 0 {
		return n
	}
	return b.ScanName(from)
}

// ScanInteger matches an optionally negative decimal integer. A lone '-'
// does not match.
func (b *Buffer) ScanInteger(from int) int {
	s := b.CharsFrom(from)
	n := 0
	if strings.HasPrefix(s, "-") {
		n = 1
	}
	digits := b.ScanNumber(from + n)
	if digits == 0 {
		return 0
	}
	return n + digits
}

// ScanControlOp matches the longest control operator. A lone '&' directly
// followed by '>' is left to ScanRedirect. Two- and three-character
// operators absorb one trailing newline.
func (b *Buffer) ScanControlOp(from int) (int, ControlOp) {
	s := b.CharsFrom(from)
	for _, c := range controlOps {
		if !strings.HasPrefix(s, c.text) {
			continue
		}
		n := len(c.text)
		if c.op == BgAnd && n < len(s) && s[n] == '>' {
			return 0, NoControl
		}
		if n > 1 && n < len(s) && s[n] == '\n' {
			n++
		}
		return n, c.op
	}
	return 0, NoControl
}

// ScanAndOr matches "&&" or "||", including an absorbed newline.
func (b *Buffer) ScanAndOr(from int) int {
	n, op := b.ScanControlOp(from)
	if op == And || op == Or {
		return n
	}
	return 0
}

// ScanRedirect matches the longest redirection operator.
func (b *Buffer) ScanRedirect(from int) (int, RedirectOp) {
	s := b.CharsFrom(from)
	for _, r := range redirectOps {
		if strings.HasPrefix(s, r.text) {
			return len(r.text), r.op
		}
	}
	return 0, NoRedirect
}
