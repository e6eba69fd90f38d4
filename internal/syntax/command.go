package syntax

import (
	"strconv"

	"github.com/marcelocantos/sush/internal/scan"
)

func (p *Parser) parseCommand(b *scan.Buffer) Command {
	if c := p.parseParenCommand(b, true); c != nil {
		return c
	}
	if b.Failed() {
		return nil
	}
	if c := p.parseSimpleCommand(b); c != nil {
		return c
	}
	return nil
}

// parseParenCommand parses ( script ), followed by redirections when
// withRedirects is set.
func (p *Parser) parseParenCommand(b *scan.Buffer, withRedirects bool) *ParenCommand {
	if !b.StartsWith("(") {
		return nil
	}
	if p.MaxDepth > 0 && p.depth >= p.MaxDepth {
		b.Fail("sush: maximum nesting depth exceeded")
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()

	c := &ParenCommand{text: b.Consume(1)}
	s := p.parseScript(b)
	if s == nil {
		return nil
	}
	c.Script = s
	c.text += s.text
	if !b.StartsWith(")") {
		failNear(b)
		return nil
	}
	c.text += b.Consume(1)
	if !withRedirects {
		return c
	}
	for {
		f := b.Fork()
		blank := f.Consume(f.ScanBlank(0))
		r := p.parseRedirect(f)
		if r == nil {
			if f.Failed() {
				b.Commit(f)
				return nil
			}
			return c
		}
		b.Commit(f)
		c.text += blank + r.text
		c.Redirects = append(c.Redirects, r)
	}
}

func (p *Parser) parseSimpleCommand(b *scan.Buffer) *SimpleCommand {
	c := &SimpleCommand{}
	for {
		blank := b.ScanBlank(0)
		if blank == b.Len() || b.At(blank) == '#' {
			break
		}
		c.text += b.Consume(blank)
		if r := p.parseRedirect(b); r != nil {
			c.Redirects = append(c.Redirects, r)
			c.text += r.text
			continue
		}
		if b.Failed() {
			return nil
		}
		if len(c.Words) == 0 {
			if a := p.parseAssign(b); a != nil {
				c.Assigns = append(c.Assigns, a)
				c.text += a.text
				continue
			}
			if b.Failed() {
				return nil
			}
		}
		w := p.parseWord(b)
		if w == nil {
			if b.Failed() {
				return nil
			}
			break
		}
		c.Words = append(c.Words, w)
		c.text += w.text
	}
	if len(c.Words)+len(c.Assigns)+len(c.Redirects) == 0 {
		return nil
	}
	return c
}

// parseAssign parses NAME=[word].
func (p *Parser) parseAssign(b *scan.Buffer) *Assign {
	n := b.ScanName(0)
	if n == 0 || b.At(n) != '=' {
		return nil
	}
	a := &Assign{text: b.Consume(n + 1)}
	a.Name = a.text[:n]
	if w := p.parseWord(b); w != nil {
		a.Value = w
		a.text += w.text
	} else if b.Failed() {
		return nil
	}
	return a
}

// parseSetVariables parses a statement made only of assignments. It works
// on a fork and consumes nothing unless the statement ends after the last
// assignment, so that "a=1 cmd" is left for ParseJob.
func (p *Parser) parseSetVariables(b *scan.Buffer) *SetVariables {
	f := b.Fork()
	e := &SetVariables{}
	for {
		eatBlank(f, &e.text)
		a := p.parseAssign(f)
		if a == nil {
			break
		}
		e.Assigns = append(e.Assigns, a)
		e.text += a.text
	}
	if len(e.Assigns) == 0 || f.Failed() {
		return nil
	}
	e.text += f.Consume(f.ScanComment(0))
	if n, op := f.ScanControlOp(0); op == scan.NewLine || op == scan.Semicolon {
		e.text += f.Consume(n)
	} else if f.Len() > 0 {
		return nil
	}
	b.Commit(f)
	return e
}

// parseRedirect parses [n]op word.
func (p *Parser) parseRedirect(b *scan.Buffer) *Redirect {
	digits := b.ScanNumber(0)
	n, op := b.ScanRedirect(digits)
	if n == 0 {
		return nil
	}
	r := &Redirect{Fd: -1, Op: op}
	if digits > 0 {
		fd, err := strconv.Atoi(b.CharsFrom(0)[:digits])
		if err != nil {
			b.Fail("sush: " + b.CharsFrom(0)[:digits] + ": bad file descriptor")
			return nil
		}
		r.Fd = fd
	}
	if op == scan.HereDoc {
		b.Fail("sush: here-document is not supported")
		return nil
	}
	r.text = b.Consume(digits + n)
	eatBlank(b, &r.text)
	w := p.parseWord(b)
	if w == nil {
		if !b.Failed() {
			failNewline(b)
		}
		return nil
	}
	r.Target = w
	r.text += w.text
	return r
}
