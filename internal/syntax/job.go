package syntax

import (
	"strings"

	"github.com/marcelocantos/sush/internal/scan"
)

// ParseJob parses pipelines chained by && and || up to an optional ';' or
// '&' terminator, together with surrounding blank lines. On failure it
// returns nil without rolling back what it consumed.
func (p *Parser) ParseJob(b *scan.Buffer) *Job {
	j := &Job{}
	for eatBlankLine(b, &j.text) {
	}
	if !p.eatPipeline(b, j) {
		return nil
	}
	for {
		eatBlank(b, &j.text)
		if !eatAndOr(b, j) {
			break
		}
		for eatBlankLine(b, &j.text) {
		}
		if !p.eatPipeline(b, j) {
			return nil
		}
	}
	eatJobEnd(b, j)
	for eatBlankLine(b, &j.text) {
	}
	return j
}

func (p *Parser) eatPipeline(b *scan.Buffer, j *Job) bool {
	pl := p.ParsePipeline(b)
	if pl == nil {
		if !b.Failed() {
			failNear(b)
		}
		return false
	}
	j.Pipelines = append(j.Pipelines, pl)
	j.text += pl.text
	return true
}

// eatAndOr consumes a connector and records it against the last pipeline,
// or records "" when there is none.
func eatAndOr(b *scan.Buffer, j *Job) bool {
	n := b.ScanAndOr(0)
	if n == 0 {
		j.PipelineEnds = append(j.PipelineEnds, "")
		return false
	}
	s := b.Consume(n)
	j.text += s
	j.PipelineEnds = append(j.PipelineEnds, strings.TrimSuffix(s, "\n"))
	return true
}

func eatJobEnd(b *scan.Buffer, j *Job) {
	n, op := b.ScanControlOp(0)
	if op != scan.Semicolon && op != scan.BgAnd {
		return
	}
	j.End = op.String()
	j.text += b.Consume(n)
}

// ParsePipeline parses commands joined by | and |&.
func (p *Parser) ParsePipeline(b *scan.Buffer) *Pipeline {
	pl := &Pipeline{}
	c := p.parseCommand(b)
	if c == nil {
		return nil
	}
	pl.Commands = append(pl.Commands, c)
	pl.text += c.Text()
	for {
		blank := b.ScanBlank(0)
		n, op := b.ScanControlOp(blank)
		if op != scan.Pipe && op != scan.PipeAnd {
			return pl
		}
		pl.text += b.Consume(blank + n)
		pl.Pipes = append(pl.Pipes, op.String())
		for eatBlankLine(b, &pl.text) {
		}
		c := p.parseCommand(b)
		if c == nil {
			if !b.Failed() {
				failNear(b)
			}
			return nil
		}
		pl.Commands = append(pl.Commands, c)
		pl.text += c.Text()
	}
}

// parseScript parses the job list of a subshell, stopping before ')'.
func (p *Parser) parseScript(b *scan.Buffer) *Script {
	s := &Script{}
	for {
		for eatBlankLine(b, &s.text) {
		}
		if b.Len() == 0 || b.StartsWith(")") {
			break
		}
		j := p.ParseJob(b)
		if j == nil {
			return nil
		}
		s.Jobs = append(s.Jobs, j)
		s.text += j.text
	}
	if len(s.Jobs) == 0 {
		failNear(b)
		return nil
	}
	return s
}
