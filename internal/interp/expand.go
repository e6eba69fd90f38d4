package interp

import (
	"context"
	"strings"

	"github.com/marcelocantos/sush/internal/syntax"
)

// expandFields evaluates command words into arguments. There is no field
// splitting; a word made only of expansions that come out empty yields no
// argument at all.
func (r *Runner) expandFields(ctx context.Context, words []*syntax.Word, stdio Stdio) ([]string, bool) {
	args := make([]string, 0, len(words))
	for _, w := range words {
		s, ok := r.expandWord(ctx, w, stdio)
		if !ok {
			return nil, false
		}
		s = r.expandTilde(w, s)
		if s == "" && !hasQuoting(w) {
			continue
		}
		args = append(args, s)
	}
	return args, true
}

// expandWord evaluates w to a single string. It fails when a command
// substitution inside w fails.
func (r *Runner) expandWord(ctx context.Context, w *syntax.Word, stdio Stdio) (string, bool) {
	var sb strings.Builder
	for _, sw := range w.Subwords {
		if !r.expandSubword(ctx, sw, stdio, &sb) {
			return "", false
		}
	}
	return sb.String(), true
}

func (r *Runner) expandSubword(ctx context.Context, sw syntax.Subword, stdio Stdio, sb *strings.Builder) bool {
	switch s := sw.(type) {
	case *syntax.Literal:
		sb.WriteString(s.Value)
	case *syntax.SingleQuoted:
		sb.WriteString(s.Value)
	case *syntax.Escaped:
		if s.Char != "\n" {
			sb.WriteString(s.Char)
		}
	case *syntax.Parameter:
		sb.WriteString(r.Core.GetParam(s.Name))
	case *syntax.DoubleQuoted:
		for _, part := range s.Parts {
			if !r.expandSubword(ctx, part, stdio, sb) {
				return false
			}
		}
	case *syntax.CommandSubstitution:
		text, ok := r.Substitute(ctx, s, stdio)
		if !ok {
			return false
		}
		sb.WriteString(text)
	}
	return true
}

// expandTilde replaces a leading unquoted ~ with $HOME.
func (r *Runner) expandTilde(w *syntax.Word, s string) string {
	lit, ok := w.Subwords[0].(*syntax.Literal)
	if !ok || !strings.HasPrefix(lit.Value, "~") {
		return s
	}
	if len(s) > 1 && s[1] != '/' {
		return s
	}
	return r.Core.GetParam("HOME") + s[1:]
}

func hasQuoting(w *syntax.Word) bool {
	for _, sw := range w.Subwords {
		switch sw.(type) {
		case *syntax.Literal, *syntax.SingleQuoted, *syntax.DoubleQuoted, *syntax.Escaped:
			return true
		}
	}
	return false
}
