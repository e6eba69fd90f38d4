package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of e, one node per line.
func Fprint(w io.Writer, e Element) error {
	pr := &printer{w: w}
	pr.element(e)
	return pr.err
}

type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (pr *printer) line(format string, args ...any) {
	if pr.err != nil {
		return
	}
	_, pr.err = fmt.Fprintf(pr.w, strings.Repeat("  ", pr.depth)+format+"\n", args...)
}

func (pr *printer) nest(f func()) {
	pr.depth++
	f()
	pr.depth--
}

func (pr *printer) element(e Element) {
	switch e := e.(type) {
	case *BlankPart:
		pr.line("BlankPart %q", e.text)
	case *SetVariables:
		pr.line("SetVariables")
		pr.nest(func() {
			for _, a := range e.Assigns {
				pr.assign(a)
			}
		})
	case *Job:
		pr.job(e)
	default:
		pr.line("%T", e)
	}
}

func (pr *printer) job(j *Job) {
	if j.End != "" {
		pr.line("Job end=%q", j.End)
	} else {
		pr.line("Job")
	}
	pr.nest(func() {
		for i, pl := range j.Pipelines {
			pr.pipeline(pl)
			if i < len(j.PipelineEnds) && j.PipelineEnds[i] != "" {
				pr.line("Connector %q", j.PipelineEnds[i])
			}
		}
	})
}

func (pr *printer) pipeline(pl *Pipeline) {
	pr.line("Pipeline")
	pr.nest(func() {
		for i, c := range pl.Commands {
			pr.command(c)
			if i < len(pl.Pipes) {
				pr.line("Pipe %q", pl.Pipes[i])
			}
		}
	})
}

func (pr *printer) command(c Command) {
	switch c := c.(type) {
	case *SimpleCommand:
		pr.line("SimpleCommand")
		pr.nest(func() {
			for _, a := range c.Assigns {
				pr.assign(a)
			}
			for _, w := range c.Words {
				pr.word(w)
			}
			for _, r := range c.Redirects {
				pr.redirect(r)
			}
		})
	case *ParenCommand:
		pr.line("Subshell")
		pr.nest(func() {
			for _, j := range c.Script.Jobs {
				pr.job(j)
			}
			for _, r := range c.Redirects {
				pr.redirect(r)
			}
		})
	}
}

func (pr *printer) assign(a *Assign) {
	pr.line("Assign %s", a.Name)
	if a.Value != nil {
		pr.nest(func() { pr.word(a.Value) })
	}
}

func (pr *printer) redirect(r *Redirect) {
	pr.line("Redirect fd=%d op=%q", r.Fd, r.Op.String())
	pr.nest(func() { pr.word(r.Target) })
}

func (pr *printer) word(w *Word) {
	pr.line("Word %q", w.text)
	pr.nest(func() {
		for _, sw := range w.Subwords {
			pr.subword(sw)
		}
	})
}

func (pr *printer) subword(sw Subword) {
	switch s := sw.(type) {
	case *Literal:
		pr.line("Literal %q", s.Value)
	case *SingleQuoted:
		pr.line("SingleQuoted %q", s.Value)
	case *Escaped:
		pr.line("Escaped %q", s.Char)
	case *Parameter:
		pr.line("Parameter %s", s.Name)
	case *DoubleQuoted:
		pr.line("DoubleQuoted")
		pr.nest(func() {
			for _, part := range s.Parts {
				pr.subword(part)
			}
		})
	case *CommandSubstitution:
		pr.line("CommandSubstitution %q", s.text)
		pr.nest(func() { pr.command(s.Command) })
	}
}
