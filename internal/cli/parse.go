package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/sush/internal/scan"
	"github.com/marcelocantos/sush/internal/syntax"
)

// RunParse dumps the syntax tree of every top-level element of src to w.
// Syntax errors go to errw and make the result 2; parsing resumes after
// each one.
func RunParse(p *syntax.Parser, src string, w, errw io.Writer) int {
	status := 0
	b := scan.New(src)
	for b.Len() > 0 {
		e := p.TopLevel(b, errw)
		if e == nil {
			status = 2
			continue
		}
		if err := syntax.Fprint(w, e); err != nil {
			fmt.Fprintf(errw, "sush parse: %v\n", err)
			return 1
		}
	}
	return status
}
