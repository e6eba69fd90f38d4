// Package shell holds the state shared by every parse and execution path:
// parameters and variables, the last exit status, the interrupt flag and
// the background job group.
package shell

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Exit statuses with fixed meaning.
const (
	StatusNotExecutable = 126
	StatusNotFound      = 127
	StatusSignalBase    = 128
	StatusInterrupted   = StatusSignalBase + int(unix.SIGINT)
)

// Timing controls how command substitution polls the interrupt flag.
type Timing struct {
	PollLines       int
	InterruptSettle time.Duration
	SigintSettle    time.Duration
}

// DefaultTiming checks every 100 lines, pausing 1ms before each check and
// 200ms after an interrupted child.
func DefaultTiming() Timing {
	return Timing{
		PollLines:       100,
		InterruptSettle: time.Millisecond,
		SigintSettle:    200 * time.Millisecond,
	}
}

// Core is the shell state threaded through parsing and execution.
// Subshells get their own Core from Subshell; the interrupt flag is shared.
type Core struct {
	Log    *zap.Logger
	Timing Timing
	// Fs backs redirections, cd and PATH lookup.
	Fs afero.Fs

	mu         sync.RWMutex
	vars       map[string]string
	exported   map[string]bool
	positional []string
	name       string
	dir        string
	status     int
	lastBg     string

	interrupted *atomic.Bool
	pgid        int

	exitCode      int
	exitRequested bool

	bgMu sync.Mutex
	bg   *errgroup.Group
}

// New creates a core whose exported variables come from environ, in
// os.Environ form.
func New(name string, args []string, environ []string) *Core {
	dir, _ := os.Getwd()
	c := &Core{
		Log:         zap.NewNop(),
		Timing:      DefaultTiming(),
		Fs:          afero.NewOsFs(),
		vars:        map[string]string{},
		exported:    map[string]bool{},
		positional:  append([]string(nil), args...),
		name:        name,
		dir:         dir,
		interrupted: &atomic.Bool{},
		pgid:        unix.Getpgrp(),
		bg:          &errgroup.Group{},
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		c.vars[k] = v
		c.exported[k] = true
	}
	return c
}

// Subshell returns a copy of c for a ( ... ) body or a background job.
// Variables are copied; the interrupt flag and process group are shared.
func (c *Core) Subshell() *Core {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := &Core{
		Log:         c.Log,
		Timing:      c.Timing,
		Fs:          c.Fs,
		vars:        make(map[string]string, len(c.vars)),
		exported:    make(map[string]bool, len(c.exported)),
		positional:  c.positional,
		name:        c.name,
		dir:         c.dir,
		status:      c.status,
		lastBg:      c.lastBg,
		interrupted: c.interrupted,
		pgid:        c.pgid,
		bg:          &errgroup.Group{},
	}
	for k, v := range c.vars {
		s.vars[k] = v
	}
	for k, v := range c.exported {
		s.exported[k] = v
	}
	return s
}

// GetParam returns the value of a special parameter, positional parameter
// or variable. Unset names yield "".
func (c *Core) GetParam(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch name {
	case "?":
		return strconv.Itoa(c.status)
	case "$":
		return strconv.Itoa(os.Getpid())
	case "!":
		return c.lastBg
	case "#":
		return strconv.Itoa(len(c.positional))
	case "*", "@":
		return strings.Join(c.positional, " ")
	case "0":
		return c.name
	case "-", ":":
		return ""
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n >= 1 && n <= len(c.positional) {
			return c.positional[n-1]
		}
		return ""
	}
	return c.vars[name]
}

// LookupVar returns a variable and whether it is set.
func (c *Core) LookupVar(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[name]
	return v, ok
}

// SetVar assigns a shell variable. An exported variable stays exported.
func (c *Core) SetVar(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = value
}

// Unset removes a variable and its export mark.
func (c *Core) Unset(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vars, name)
	delete(c.exported, name)
}

// Export marks name for the environment of child processes.
func (c *Core) Export(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exported[name] = true
}

// Environ returns exported variables as sorted NAME=value pairs.
func (c *Core) Environ() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	env := make([]string, 0, len(c.exported))
	for k := range c.exported {
		if v, ok := c.vars[k]; ok {
			env = append(env, k+"="+v)
		}
	}
	sort.Strings(env)
	return env
}

// ExitStatus returns $?.
func (c *Core) ExitStatus() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SetExitStatus stores $?. Last writer wins.
func (c *Core) SetExitStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// Interrupted reports whether SIGINT arrived since the last reset.
func (c *Core) Interrupted() bool { return c.interrupted.Load() }

// Interrupt raises the interrupt flag.
func (c *Core) Interrupt() { c.interrupted.Store(true) }

// ResetInterrupt lowers the interrupt flag before the next statement.
func (c *Core) ResetInterrupt() { c.interrupted.Store(false) }

// Exit asks the read loop, or the enclosing subshell, to stop with code.
func (c *Core) Exit(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitCode = code
	c.exitRequested = true
}

// ExitRequested returns the requested exit code, if any.
func (c *Core) ExitRequested() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exitCode, c.exitRequested
}

// Go runs a background job. id is recorded as $!.
func (c *Core) Go(id string, job func() int) {
	c.mu.Lock()
	c.lastBg = id
	c.mu.Unlock()

	c.bgMu.Lock()
	g := c.bg
	c.bgMu.Unlock()
	g.Go(func() error {
		status := job()
		c.Log.Debug("background job done", zap.String("id", id), zap.Int("status", status))
		return nil
	})
}

// WaitBackground blocks until every background job started so far is done.
func (c *Core) WaitBackground() {
	c.bgMu.Lock()
	g := c.bg
	c.bg = &errgroup.Group{}
	c.bgMu.Unlock()
	_ = g.Wait()
}
