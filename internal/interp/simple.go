package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"go.uber.org/zap"

	"github.com/marcelocantos/sush/internal/builtin"
	"github.com/marcelocantos/sush/internal/shell"
	"github.com/marcelocantos/sush/internal/syntax"
)

func (r *Runner) execSimple(ctx context.Context, c *syntax.SimpleCommand, stdio Stdio, owned []io.Closer) shell.Proc {
	args, ok := r.expandFields(ctx, c.Words, stdio)
	if !ok {
		closeAll(owned)
		return shell.DoneProc(r.failStatus())
	}

	if len(args) == 0 {
		// Assignments and redirections only: both take effect here.
		defer closeAll(owned)
		r.Core.SetExitStatus(0)
		for _, a := range c.Assigns {
			if !r.assign(ctx, a, stdio) {
				return shell.DoneProc(r.failStatus())
			}
		}
		_, cleanup, err := r.redirect(ctx, c.Redirects, stdio)
		if err != nil {
			return shell.DoneProc(r.redirectFailed(err, stdio))
		}
		cleanup()
		return shell.DoneProc(r.Core.ExitStatus())
	}

	env := map[string]string{}
	for _, a := range c.Assigns {
		value := ""
		if a.Value != nil {
			v, ok := r.expandWord(ctx, a.Value, stdio)
			if !ok {
				closeAll(owned)
				return shell.DoneProc(r.failStatus())
			}
			value = v
		}
		env[a.Name] = value
	}

	cio, cleanup, err := r.redirect(ctx, c.Redirects, stdio)
	if err != nil {
		closeAll(owned)
		return shell.DoneProc(r.redirectFailed(err, stdio))
	}

	if b, err := r.Builtins.Lookup(args[0]); err == nil {
		for k, v := range env {
			r.Core.SetVar(k, v)
		}
		bctx := builtin.NewContext(ctx, r.Builtins)
		return shell.StartFunc(func() int {
			defer cleanup()
			defer closeAll(owned)
			err := b.Run(bctx, r.Core, args[1:], cio.In, cio.Out, cio.Err)
			return builtin.Status(args[0], err, cio.Err)
		})
	}

	proc, status := r.startExternal(args, env, cio)
	closeAll(owned)
	if proc == nil {
		cleanup()
		return shell.DoneProc(status)
	}
	return &cleanupProc{Proc: proc, cleanup: cleanup}
}

// startExternal starts args[0] from PATH. On failure it reports on stderr
// and returns the exit status instead of a process.
func (r *Runner) startExternal(args []string, env map[string]string, stdio Stdio) (shell.Proc, int) {
	path, err := r.Core.LookPath(args[0])
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			fmt.Fprintf(stdio.Err, "sush: %s: command not found\n", args[0])
			return nil, shell.StatusNotFound
		case errors.Is(err, fs.ErrPermission):
			fmt.Fprintf(stdio.Err, "sush: %s: Permission denied\n", args[0])
			return nil, shell.StatusNotExecutable
		default:
			fmt.Fprintf(stdio.Err, "sush: %s: No such file or directory\n", args[0])
			return nil, shell.StatusNotFound
		}
	}

	cmd := exec.Command(path, args[1:]...)
	cmd.Args[0] = args[0]
	cmd.Dir = r.Core.Dir()
	cmd.Env = r.Core.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	proc, err := r.Core.StartExec(cmd)
	if err != nil {
		r.log().Debug("start failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(stdio.Err, "sush: %s: %v\n", args[0], err)
		return nil, shell.StatusNotExecutable
	}
	return proc, 0
}
