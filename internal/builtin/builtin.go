// Package builtin holds commands that run inside the shell process because
// they read or change shell state.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// State is the part of the shell a builtin may touch.
type State interface {
	GetParam(name string) string
	LookupVar(name string) (string, bool)
	SetVar(name, value string)
	Unset(name string)
	Export(name string)
	Environ() []string
	ExitStatus() int
	Exit(code int)
	WaitBackground()
	Dir() string
	Chdir(dir string) error
	LookPath(file string) (string, error)
}

// Builtin is the interface every builtin command implements.
type Builtin interface {
	// Name returns the command name.
	Name() string

	// Description returns a one-line summary for `sush builtins`.
	Description() string

	// Run executes the builtin. args excludes the command name.
	Run(ctx context.Context, st State, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// ExitError represents a command that exited with a non-zero status.
// It carries the exit code so callers can propagate it without extra messaging.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Status turns the error returned by Run into an exit status. Errors other
// than *ExitError are reported on stderr as "sush: name: err".
func Status(name string, err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "sush: %s: %v\n", name, err)
	return 1
}

// Registry maps command names to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a builtin, replacing any with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin: %q", name)
	}
	return b, nil
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

type contextKey struct{}

// NewContext returns a context with the registry attached.
func NewContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, contextKey{}, reg)
}

// RegistryFromContext retrieves the registry from a context.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(contextKey{}).(*Registry)
	return reg, ok
}

// RegisterAll adds every builtin to the registry.
func RegisterAll(r *Registry) {
	r.Register(&Cd{})
	r.Register(&Echo{})
	r.Register(&Exit{})
	r.Register(&Export{})
	r.Register(&False{})
	r.Register(&Pwd{})
	r.Register(&True{})
	r.Register(&Type{})
	r.Register(&Unset{})
	r.Register(&Wait{})
}
