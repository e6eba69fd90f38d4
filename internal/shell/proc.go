package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Proc is a started command: an OS process, or a builtin or subshell
// running in-process.
type Proc interface {
	// Pid is the OS process id, or 0 for in-process commands.
	Pid() int
	// Wait blocks until the command finishes and returns its exit status.
	// It may be called more than once.
	Wait() int
}

// WaitPipeline waits for every process in order and stores the status of
// the last one in $?.
func (c *Core) WaitPipeline(procs []Proc) int {
	status := c.ExitStatus()
	for _, p := range procs {
		status = p.Wait()
		c.Log.Debug("wait", zap.Int("pid", p.Pid()), zap.Int("status", status))
	}
	c.SetExitStatus(status)
	return status
}

// ExecProc wraps a started exec.Cmd.
type ExecProc struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status int
}

// StartExec starts cmd in the shell's process group.
func (c *Core) StartExec(cmd *exec.Cmd) (*ExecProc, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: c.pgid}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	c.Log.Debug("spawn", zap.Int("pid", cmd.Process.Pid), zap.Strings("argv", cmd.Args))
	p := &ExecProc{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.status = StatusOf(cmd.Wait())
		close(p.done)
	}()
	return p, nil
}

func (p *ExecProc) Pid() int { return p.cmd.Process.Pid }

func (p *ExecProc) Wait() int {
	<-p.done
	return p.status
}

// FuncProc runs fn on its own goroutine.
type FuncProc struct {
	done   chan struct{}
	status int
}

// StartFunc runs fn in-process and returns immediately.
func StartFunc(fn func() int) *FuncProc {
	p := &FuncProc{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.status = fn()
	}()
	return p
}

func (p *FuncProc) Pid() int { return 0 }

func (p *FuncProc) Wait() int {
	<-p.done
	return p.status
}

// DoneProc is a command that finished before it was started, such as one
// whose redirections failed.
type DoneProc int

func (p DoneProc) Pid() int  { return 0 }
func (p DoneProc) Wait() int { return int(p) }

// StatusOf decodes the error from exec.Cmd.Wait into an exit status.
// Death by signal n is 128+n.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return StatusSignalBase + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// NotifyInterrupt raises the interrupt flag on every SIGINT until ctx is
// done or the returned stop function is called.
func (c *Core) NotifyInterrupt(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				c.Log.Debug("interrupt")
				c.Interrupt()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
