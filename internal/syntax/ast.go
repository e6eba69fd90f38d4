// Package syntax builds parse trees from a scan.Buffer by recursive descent.
// Every node keeps the exact source text it consumed.
package syntax

import "github.com/marcelocantos/sush/internal/scan"

// Element is one top-level statement returned by TopLevel.
type Element interface {
	Text() string
}

// BlankPart is a run of blanks, comments and empty lines.
type BlankPart struct {
	text string
}

func (e *BlankPart) Text() string { return e.text }

// SetVariables is a statement made only of assignments: a=1 b=$x
type SetVariables struct {
	Assigns []*Assign
	text    string
}

func (e *SetVariables) Text() string { return e.text }

// Assign is NAME=value. Value is nil for an empty assignment.
type Assign struct {
	Name  string
	Value *Word
	text  string
}

func (a *Assign) Text() string { return a.text }

// Job is a list of pipelines chained by && and ||.
type Job struct {
	Pipelines []*Pipeline
	// PipelineEnds holds the connector after each pipeline, "" for the
	// last one, so len(PipelineEnds) == len(Pipelines).
	PipelineEnds []string
	// End is the consumed terminator: ";", "&" or "".
	End  string
	text string
}

func (j *Job) Text() string { return j.text }

// Background reports whether the job was terminated by '&'.
func (j *Job) Background() bool { return j.End == "&" }

// Pipeline is a list of commands whose standard streams are joined by pipes.
type Pipeline struct {
	Commands []Command
	// Pipes[i] joins Commands[i] and Commands[i+1]: "|" or "|&".
	Pipes []string
	text  string
}

func (p *Pipeline) Text() string { return p.text }

// Command is a SimpleCommand or a ParenCommand.
type Command interface {
	Text() string
	command()
}

// SimpleCommand is [assignments] words, interleaved with redirections.
type SimpleCommand struct {
	Assigns   []*Assign
	Words     []*Word
	Redirects []*Redirect
	text      string
}

func (c *SimpleCommand) Text() string { return c.text }
func (*SimpleCommand) command()       {}

// ParenCommand is a subshell: ( script ) [redirections]
type ParenCommand struct {
	Script    *Script
	Redirects []*Redirect
	text      string
}

func (c *ParenCommand) Text() string { return c.text }
func (*ParenCommand) command()       {}

// Script is the job list inside parentheses.
type Script struct {
	Jobs []*Job
	text string
}

func (s *Script) Text() string { return s.text }

// Redirect is [n]op word. Fd is -1 when no number was written.
type Redirect struct {
	Fd     int
	Op     scan.RedirectOp
	Target *Word
	text   string
}

func (r *Redirect) Text() string { return r.text }

// Word is a run of subwords with no unquoted blank or operator in between.
type Word struct {
	Subwords []Subword
	text     string
}

func (w *Word) Text() string { return w.text }

// Subword is one piece of a Word.
type Subword interface {
	Text() string
}

// Literal is plain text. Value has quoting removed where it applies.
type Literal struct {
	Value string
	text  string
}

func (s *Literal) Text() string { return s.text }

// SingleQuoted is '...'.
type SingleQuoted struct {
	Value string
	text  string
}

func (s *SingleQuoted) Text() string { return s.text }

// DoubleQuoted is "..." holding literals, parameters and substitutions.
type DoubleQuoted struct {
	Parts []Subword
	text  string
}

func (s *DoubleQuoted) Text() string { return s.text }

// Escaped is a backslash and the character it quotes.
type Escaped struct {
	Char string
	text string
}

func (s *Escaped) Text() string { return s.text }

// Parameter is $name, ${name}, $? or $1.
type Parameter struct {
	Name string
	text string
}

func (s *Parameter) Text() string { return s.text }

// CommandSubstitution is $( ... ). Command is only set once the nested
// tree parsed, and evaluation is only attempted then.
type CommandSubstitution struct {
	Command *ParenCommand
	text    string
}

func (s *CommandSubstitution) Text() string { return s.text }
