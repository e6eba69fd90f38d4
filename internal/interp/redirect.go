package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/marcelocantos/sush/internal/scan"
	"github.com/marcelocantos/sush/internal/syntax"
)

// errExpansion marks a redirection whose target failed to expand. The
// failure was already reported.
var errExpansion = errors.New("expansion failed")

// redirect applies rs on top of stdio. The returned cleanup closes every
// file opened and must be called once the command has finished.
func (r *Runner) redirect(ctx context.Context, rs []*syntax.Redirect, stdio Stdio) (Stdio, func(), error) {
	if len(rs) == 0 {
		return stdio, func() {}, nil
	}
	var opened []io.Closer
	cleanup := func() { closeAll(opened) }
	out := stdio
	for _, rd := range rs {
		target, ok := r.expandWord(ctx, rd.Target, stdio)
		if !ok {
			cleanup()
			return stdio, nil, errExpansion
		}
		f, err := r.applyRedirect(rd, target, &out)
		if f != nil {
			opened = append(opened, f)
		}
		if err != nil {
			cleanup()
			return stdio, nil, err
		}
	}
	return out, cleanup, nil
}

func (r *Runner) applyRedirect(rd *syntax.Redirect, target string, out *Stdio) (afero.File, error) {
	fd := rd.Fd
	var flag int
	switch rd.Op {
	case scan.Input:
		flag = os.O_RDONLY
		fd = defaultFd(fd, 0)
	case scan.Output:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		fd = defaultFd(fd, 1)
	case scan.Append:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		fd = defaultFd(fd, 1)
	case scan.InOut:
		flag = os.O_RDWR | os.O_CREATE
		fd = defaultFd(fd, 0)
	case scan.AndOutput:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case scan.AndAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case scan.HereStr:
		return nil, setStream(out, defaultFd(fd, 0), strings.NewReader(target+"\n"))
	case scan.OutputAnd:
		if target == "-" {
			return nil, setStream(out, defaultFd(fd, 1), discard{})
		}
		if n, err := strconv.Atoi(target); err == nil {
			src, err := stream(*out, n)
			if err != nil {
				return nil, err
			}
			return nil, setStream(out, defaultFd(fd, 1), src)
		}
		if fd >= 0 {
			return nil, fmt.Errorf("%s: ambiguous redirect", target)
		}
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	default:
		return nil, fmt.Errorf("%s: unsupported redirection", rd.Op)
	}
	if fd > 2 {
		return nil, fmt.Errorf("%d: unsupported file descriptor", fd)
	}

	f, err := r.Core.Fs.OpenFile(r.Core.Abs(target), flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, pathErr(err))
	}
	if fd < 0 {
		// &> and >& file: both output streams.
		out.Out, out.Err = f, f
		return f, nil
	}
	return f, setStream(out, fd, f)
}

func defaultFd(fd, def int) int {
	if fd < 0 {
		return def
	}
	return fd
}

// stream returns the current stream for fd, for n>&m duplication.
func stream(s Stdio, fd int) (any, error) {
	switch fd {
	case 0:
		return s.In, nil
	case 1:
		return s.Out, nil
	case 2:
		return s.Err, nil
	}
	return nil, fmt.Errorf("%d: bad file descriptor", fd)
}

func setStream(s *Stdio, fd int, v any) error {
	switch fd {
	case 0:
		rd, ok := v.(io.Reader)
		if !ok {
			return fmt.Errorf("%d: bad file descriptor", fd)
		}
		s.In = rd
	case 1, 2:
		w, ok := v.(io.Writer)
		if !ok {
			return fmt.Errorf("%d: bad file descriptor", fd)
		}
		if fd == 1 {
			s.Out = w
		} else {
			s.Err = w
		}
	default:
		return fmt.Errorf("%d: unsupported file descriptor", fd)
	}
	return nil
}

// pathErr drops the operation and path from a *PathError; the caller names
// the file itself.
func pathErr(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		if errors.Is(pe.Err, os.ErrNotExist) {
			return errors.New("No such file or directory")
		}
		return pe.Err
	}
	return err
}

func (r *Runner) redirectFailed(err error, stdio Stdio) int {
	if !errors.Is(err, errExpansion) {
		fmt.Fprintf(stdio.Err, "sush: %v\n", err)
		r.Core.SetExitStatus(1)
		return 1
	}
	return r.failStatus()
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
