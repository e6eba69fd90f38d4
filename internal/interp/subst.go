package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/marcelocantos/sush/internal/shell"
	"github.com/marcelocantos/sush/internal/syntax"
)

// Substitute runs the command of s on a subshell and returns what it wrote
// to standard output, minus the final newline. It reports failure when the
// command was never parsed, when reading fails, when an interrupt is seen
// while reading, or when the command died of SIGINT. $? is left as the
// command's exit status.
func (r *Runner) Substitute(ctx context.Context, s *syntax.CommandSubstitution, stdio Stdio) (string, bool) {
	if s.Command == nil {
		return "", false
	}
	rd, w, err := os.Pipe()
	if err != nil {
		fmt.Fprintf(stdio.Err, "sush: %v\n", err)
		return "", false
	}
	proc := r.ExecCommand(ctx, s.Command, Stdio{In: stdio.In, Out: w, Err: stdio.Err}, []io.Closer{w})
	text, ok := r.readLines(rd, stdio.Err)
	r.Core.WaitPipeline([]shell.Proc{proc})
	if r.Core.GetParam("?") == strconv.Itoa(shell.StatusInterrupted) {
		time.Sleep(r.Core.Timing.SigintSettle)
		return "", false
	}
	if !ok {
		return "", false
	}
	return text, true
}

// readLines reads rd to the end a line at a time, restoring each newline
// and dropping the last one. The interrupt flag is checked before every line
// and once more at end of input; every PollLines lines the check is preceded
// by an InterruptSettle pause. Output that is not valid UTF-8 fails the
// read. rd is closed on every return path.
func (r *Runner) readLines(rd *os.File, errw io.Writer) (string, bool) {
	defer rd.Close()
	br := bufio.NewReader(rd)
	poll := r.Core.Timing.PollLines
	var sb strings.Builder
	for i := 0; ; i++ {
		if r.interrupted(i, poll) {
			return sb.String(), false
		}
		line, err := br.ReadString('\n')
		if line != "" {
			if !utf8.ValidString(line) {
				fmt.Fprintln(errw, "sush: stream did not contain valid UTF-8")
				return sb.String(), false
			}
			if strings.HasSuffix(line, "\n") {
				line = strings.TrimSuffix(line[:len(line)-1], "\r")
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(errw, "sush: %v\n", err)
			return sb.String(), false
		}
	}
	if r.Core.Interrupted() {
		r.log().Debug("substitution interrupted at end of output")
		return sb.String(), false
	}
	text := sb.String()
	if text != "" {
		text = text[:len(text)-1]
	}
	return text, true
}

// interrupted reports the interrupt flag before line i, pausing first on
// every poll-th line so a pending SIGINT can land.
func (r *Runner) interrupted(i, poll int) bool {
	if poll > 0 && i%poll == poll-1 {
		time.Sleep(r.Core.Timing.InterruptSettle)
	}
	if !r.Core.Interrupted() {
		return false
	}
	r.log().Debug("substitution interrupted", zap.Int("lines", i))
	return true
}
