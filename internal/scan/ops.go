package scan

// ControlOp is a control operator recognised by ScanControlOp.
type ControlOp int

const (
	NoControl       ControlOp = iota
	SemiSemiAnd               // ;;&
	Or                        // ||
	And                       // &&
	DoubleSemicolon           // ;;
	SemiAnd                   // ;&
	PipeAnd                   // |&
	BgAnd                     // &
	NewLine                   // \n
	Pipe                      // |
	Semicolon                 // ;
	LeftParen                 // (
	RightParen                // )
)

// Longest spellings first: a shorter operator that is a prefix of a longer
// one must never win.
var controlOps = []struct {
	text string
	op   ControlOp
}{
	{";;&", SemiSemiAnd},
	{"||", Or},
	{"&&", And},
	{";;", DoubleSemicolon},
	{";&", SemiAnd},
	{"|&", PipeAnd},
	{"&", BgAnd},
	{"\n", NewLine},
	{"|", Pipe},
	{";", Semicolon},
	{"(", LeftParen},
	{")", RightParen},
}

func (o ControlOp) String() string {
	for _, c := range controlOps {
		if c.op == o {
			return c.text
		}
	}
	return ""
}

// RedirectOp is a redirection operator recognised by ScanRedirect.
type RedirectOp int

const (
	NoRedirect RedirectOp = iota
	HereStr               // <<<
	AndAppend             // &>>
	Append                // >>
	HereDoc               // <<
	OutputAnd             // >&
	AndOutput             // &>
	InOut                 // <>
	Output                // >
	Input                 // <
)

var redirectOps = []struct {
	text string
	op   RedirectOp
}{
	{"<<<", HereStr},
	{"&>>", AndAppend},
	{">>", Append},
	{"<<", HereDoc},
	{">&", OutputAnd},
	{"&>", AndOutput},
	{"<>", InOut},
	{">", Output},
	{"<", Input},
}

func (o RedirectOp) String() string {
	for _, r := range redirectOps {
		if r.op == o {
			return r.text
		}
	}
	return ""
}
