package shell

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by LookPath when no executable file matched.
var ErrNotFound = exec.ErrNotFound

// Dir returns the working directory of this core.
func (c *Core) Dir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir
}

// Abs resolves path against the working directory.
func (c *Core) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Dir(), path)
}

// Chdir changes the working directory of this core only and updates PWD
// and OLDPWD.
func (c *Core) Chdir(dir string) error {
	abs := c.Abs(dir)
	fi, err := c.Fs.Stat(abs)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "chdir", Path: dir, Err: errors.New("not a directory")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars["OLDPWD"] = c.dir
	c.vars["PWD"] = abs
	c.dir = abs
	return nil
}

func findExecutable(fsys afero.Fs, file string) error {
	fi, err := fsys.Stat(file)
	if err != nil {
		return err
	}
	if m := fi.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches PATH for an executable named file. A name containing a
// slash is tried directly, relative to the working directory.
func (c *Core) LookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		path := c.Abs(file)
		if err := findExecutable(c.Fs, path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, dir := range filepath.SplitList(c.GetParam("PATH")) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := c.Abs(filepath.Join(dir, file))
		if err := findExecutable(c.Fs, path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}
