package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"go.uber.org/zap"

	"github.com/marcelocantos/sush/internal/audit"
	"github.com/marcelocantos/sush/internal/interp"
	"github.com/marcelocantos/sush/internal/scan"
	"github.com/marcelocantos/sush/internal/syntax"
)

// ErrInterrupted is returned by a LineReader when the user pressed ^C at
// the prompt. The statement being typed is discarded.
var ErrInterrupted = errors.New("interrupted")

// LineReader supplies input a line at a time, without the trailing newline.
// It returns io.EOF when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Session reads statements and runs them on one shell.
type Session struct {
	Runner *interp.Runner
	Parser *syntax.Parser
	Audit  *audit.Logger // nil disables the audit trail
	Log    *zap.Logger
	Stdio  interp.Stdio
	PS1    string
	PS2    string
}

// Run reads from in until end of input or an exit request and returns the
// shell's exit status. Lines are gathered until the parser no longer needs
// more, then every complete element is run.
func (s *Session) Run(ctx context.Context, in LineReader) int {
	b := scan.New("")
	for {
		prompt := s.PS1
		if b.Len() > 0 {
			prompt = s.PS2
		}
		line, err := in.ReadLine(prompt)
		if errors.Is(err, ErrInterrupted) {
			b = scan.New("")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(s.Stdio.Err, "sush: %v\n", err)
			}
			s.drain(ctx, b)
			break
		}
		b.Feed(line + "\n")
		if s.Parser.NeedsMore(b) {
			continue
		}
		if s.drain(ctx, b) {
			break
		}
	}
	return s.status()
}

// RunString runs a complete script held in memory, as for sush -c.
func (s *Session) RunString(ctx context.Context, script string) int {
	s.drain(ctx, scan.New(script))
	return s.status()
}

func (s *Session) status() int {
	if code, ok := s.Runner.Core.ExitRequested(); ok {
		return code
	}
	return s.Runner.Core.ExitStatus()
}

// drain runs every element in b. It reports whether exit was requested.
func (s *Session) drain(ctx context.Context, b *scan.Buffer) bool {
	for b.Len() > 0 {
		s.Runner.Core.ResetInterrupt()
		e := s.Parser.TopLevel(b, s.Stdio.Err)
		if e == nil {
			s.Runner.Core.SetExitStatus(2)
			s.log().Debug("parse error recovered")
			continue
		}
		s.exec(ctx, e)
		if _, exiting := s.Runner.Core.ExitRequested(); exiting {
			return true
		}
	}
	return false
}

func (s *Session) exec(ctx context.Context, e syntax.Element) {
	start := time.Now()
	status := s.Runner.Run(ctx, e, s.Stdio)
	duration := time.Since(start)

	j, ok := e.(*syntax.Job)
	if !ok {
		return
	}
	interrupted := s.Runner.Core.Interrupted()
	s.log().Debug("job done",
		zap.String("job", j.Text()),
		zap.Int("status", status),
		zap.Bool("interrupted", interrupted),
		zap.Duration("duration", duration))
	if s.Audit == nil {
		return
	}
	// Audit failures must not fail the job.
	_ = s.Audit.Log(strings.TrimSpace(j.Text()), CommandNames(j), status, duration, s.Runner.Core.Dir(), audit.LogOptions{
		Background:  j.Background(),
		Interrupted: interrupted,
	})
}

func (s *Session) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// CommandNames lists the command words of j as written, one per command.
// A subshell is named "(...)".
func CommandNames(j *syntax.Job) []string {
	var names []string
	for _, pl := range j.Pipelines {
		for _, c := range pl.Commands {
			switch c := c.(type) {
			case *syntax.SimpleCommand:
				if len(c.Words) > 0 {
					names = append(names, c.Words[0].Text())
				}
			case *syntax.ParenCommand:
				names = append(names, "(...)")
			}
		}
	}
	return names
}

type readerInput struct {
	br *bufio.Reader
}

// NewReaderInput reads lines from r, ignoring prompts.
func NewReaderInput(r io.Reader) LineReader {
	return &readerInput{br: bufio.NewReader(r)}
}

func (r *readerInput) ReadLine(string) (string, error) {
	line, err := r.br.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return strings.TrimSuffix(line, "\n"), err
}

type readlineInput struct {
	rl *readline.Instance
}

// NewReadlineInput reads lines from the terminal with line editing and
// history. The returned closer restores the terminal.
func NewReadlineInput(historyFile string) (LineReader, io.Closer, error) {
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("readline: %w", err)
	}
	return &readlineInput{rl: rl}, rl, nil
}

func (r *readlineInput) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}
