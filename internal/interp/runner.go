// Package interp executes parse trees: jobs run their pipelines in order,
// pipelines start their commands side by side joined by OS pipes, and
// command substitutions capture a nested command's output as text.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/marcelocantos/sush/internal/builtin"
	"github.com/marcelocantos/sush/internal/shell"
	"github.com/marcelocantos/sush/internal/syntax"
)

// Stdio is the set of standard streams a command runs with.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OSStdio returns the process's own streams.
func OSStdio() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Runner executes parse trees against one shell core.
type Runner struct {
	Core     *shell.Core
	Builtins *builtin.Registry

	jobs *atomic.Int64
}

// New creates a runner over core using the builtins in reg.
func New(core *shell.Core, reg *builtin.Registry) *Runner {
	return &Runner{Core: core, Builtins: reg, jobs: &atomic.Int64{}}
}

// subshell returns a runner over a copy of the core.
func (r *Runner) subshell() *Runner {
	return &Runner{Core: r.Core.Subshell(), Builtins: r.Builtins, jobs: r.jobs}
}

func (r *Runner) log() *zap.Logger { return r.Core.Log }

// Run executes one top-level element and returns $?.
func (r *Runner) Run(ctx context.Context, e syntax.Element, stdio Stdio) int {
	switch e := e.(type) {
	case *syntax.SetVariables:
		r.Core.SetExitStatus(0)
		for _, a := range e.Assigns {
			if !r.assign(ctx, a, stdio) {
				return r.failStatus()
			}
		}
	case *syntax.Job:
		return r.ExecJob(ctx, e, stdio)
	}
	return r.Core.ExitStatus()
}

func (r *Runner) assign(ctx context.Context, a *syntax.Assign, stdio Stdio) bool {
	value := ""
	if a.Value != nil {
		v, ok := r.expandWord(ctx, a.Value, stdio)
		if !ok {
			return false
		}
		value = v
	}
	r.Core.SetVar(a.Name, value)
	return true
}

// failStatus stores and returns the status of a command aborted before it
// ran: $? as left by the failure, or 1 if that was success.
func (r *Runner) failStatus() int {
	status := r.Core.ExitStatus()
	if status == 0 {
		status = 1
	}
	r.Core.SetExitStatus(status)
	return status
}

// ExecJob runs the pipelines of j one after another, waiting for each before
// starting the next. && and || consult the latest $?. A job ending in '&'
// runs on a subshell in the background and reports 0 at once.
func (r *Runner) ExecJob(ctx context.Context, j *syntax.Job, stdio Stdio) int {
	if !j.Background() {
		return r.execPipelines(ctx, j, stdio)
	}
	sub := r.subshell()
	id := "%" + strconv.FormatInt(r.jobs.Add(1), 10)
	bgio := Stdio{In: eofReader{}, Out: stdio.Out, Err: stdio.Err}
	r.log().Debug("background", zap.String("id", id), zap.String("job", j.Text()))
	r.Core.Go(id, func() int {
		return sub.execPipelines(ctx, j, bgio)
	})
	r.Core.SetExitStatus(0)
	return 0
}

func (r *Runner) execPipelines(ctx context.Context, j *syntax.Job, stdio Stdio) int {
	for i, pl := range j.Pipelines {
		if i > 0 {
			switch j.PipelineEnds[i-1] {
			case "&&":
				if r.Core.ExitStatus() != 0 {
					continue
				}
			case "||":
				if r.Core.ExitStatus() == 0 {
					continue
				}
			}
		}
		if r.Core.Interrupted() {
			break
		}
		if _, exiting := r.Core.ExitRequested(); exiting {
			break
		}
		r.Core.WaitPipeline(r.ExecPipeline(ctx, pl, stdio))
	}
	return r.Core.ExitStatus()
}

// ExecPipeline starts every command of pl, each reading the previous one's
// output through an OS pipe, and returns without waiting. In a pipeline of
// more than one command each command runs on its own subshell.
func (r *Runner) ExecPipeline(ctx context.Context, pl *syntax.Pipeline, stdio Stdio) []shell.Proc {
	n := len(pl.Commands)
	procs := make([]shell.Proc, 0, n)
	in := stdio.In
	var prev *os.File
	for i, c := range pl.Commands {
		cio := Stdio{In: in, Out: stdio.Out, Err: stdio.Err}
		var owned []io.Closer
		if prev != nil {
			owned = append(owned, prev)
		}
		prev = nil
		if i < n-1 {
			pr, pw, err := os.Pipe()
			if err != nil {
				fmt.Fprintf(stdio.Err, "sush: pipe: %v\n", err)
				closeAll(owned)
				procs = append(procs, shell.DoneProc(1))
				break
			}
			cio.Out = pw
			if pl.Pipes[i] == "|&" {
				cio.Err = pw
			}
			owned = append(owned, pw)
			prev = pr
			in = pr
		}
		runner := r
		if n > 1 {
			runner = r.subshell()
		}
		procs = append(procs, runner.ExecCommand(ctx, c, cio, owned))
	}
	return procs
}

// ExecCommand starts c and takes ownership of owned, closing each once the
// command no longer needs it.
func (r *Runner) ExecCommand(ctx context.Context, c syntax.Command, stdio Stdio, owned []io.Closer) shell.Proc {
	switch c := c.(type) {
	case *syntax.SimpleCommand:
		return r.execSimple(ctx, c, stdio, owned)
	case *syntax.ParenCommand:
		return r.execParen(ctx, c, stdio, owned)
	}
	closeAll(owned)
	return shell.DoneProc(1)
}

func (r *Runner) execParen(ctx context.Context, c *syntax.ParenCommand, stdio Stdio, owned []io.Closer) shell.Proc {
	sub := r.subshell()
	return shell.StartFunc(func() int {
		defer closeAll(owned)
		cio, cleanup, err := sub.redirect(ctx, c.Redirects, stdio)
		if err != nil {
			return sub.redirectFailed(err, stdio)
		}
		defer cleanup()
		sub.RunScript(ctx, c.Script, cio)
		if code, ok := sub.Core.ExitRequested(); ok {
			return code
		}
		return sub.Core.ExitStatus()
	})
}

// RunScript runs the jobs of s in order until one asks to exit or an
// interrupt arrives.
func (r *Runner) RunScript(ctx context.Context, s *syntax.Script, stdio Stdio) int {
	for _, j := range s.Jobs {
		r.ExecJob(ctx, j, stdio)
		if _, exiting := r.Core.ExitRequested(); exiting || r.Core.Interrupted() {
			break
		}
	}
	return r.Core.ExitStatus()
}

func closeAll(cs []io.Closer) {
	for _, c := range cs {
		c.Close()
	}
}

// cleanupProc runs a cleanup function once its command has finished.
type cleanupProc struct {
	shell.Proc
	once    sync.Once
	cleanup func()
}

func (p *cleanupProc) Wait() int {
	status := p.Proc.Wait()
	p.once.Do(p.cleanup)
	return status
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
