package shell

import (
	"io/fs"
	"os/exec"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams(t *testing.T) {
	c := New("sush", []string{"a", "b"}, []string{"HOME=/home/x", "bogus", "=v"})
	assert.Equal(t, "/home/x", c.GetParam("HOME"))
	assert.Equal(t, "2", c.GetParam("#"))
	assert.Equal(t, "a b", c.GetParam("@"))
	assert.Equal(t, "b", c.GetParam("2"))
	assert.Equal(t, "", c.GetParam("3"))
	assert.Equal(t, "sush", c.GetParam("0"))
	assert.Equal(t, "0", c.GetParam("?"))
	assert.Equal(t, "", c.GetParam("nope"))
	assert.Equal(t, []string{"HOME=/home/x"}, c.Environ())
}

func TestVarsAndExport(t *testing.T) {
	c := New("sush", nil, nil)
	c.SetVar("x", "1")
	assert.Empty(t, c.Environ())
	c.Export("x")
	c.Export("unset_yet")
	assert.Equal(t, []string{"x=1"}, c.Environ())
	c.SetVar("x", "2")
	assert.Equal(t, []string{"x=2"}, c.Environ())
	c.Unset("x")
	_, ok := c.LookupVar("x")
	assert.False(t, ok)
	assert.Empty(t, c.Environ())
}

func TestSubshellIsolation(t *testing.T) {
	c := New("sush", nil, nil)
	c.SetVar("x", "outer")
	s := c.Subshell()
	s.SetVar("x", "inner")
	s.SetExitStatus(3)
	s.Exit(4)
	assert.Equal(t, "outer", c.GetParam("x"))
	assert.Equal(t, 0, c.ExitStatus())
	_, exiting := c.ExitRequested()
	assert.False(t, exiting)

	s.Interrupt()
	assert.True(t, c.Interrupted(), "interrupt flag is shared")
	c.ResetInterrupt()
	assert.False(t, s.Interrupted())
}

func TestWaitPipelineUsesLastStatus(t *testing.T) {
	c := New("sush", nil, nil)
	procs := []Proc{DoneProc(1), StartFunc(func() int { return 0 }), DoneProc(7)}
	assert.Equal(t, 7, c.WaitPipeline(procs))
	assert.Equal(t, "7", c.GetParam("?"))
}

func TestWaitPipelineWaitsForAll(t *testing.T) {
	c := New("sush", nil, nil)
	var ran atomic.Int32
	release := make(chan struct{})
	slow := StartFunc(func() int {
		<-release
		ran.Add(1)
		return 5
	})
	close(release)
	assert.Equal(t, 0, c.WaitPipeline([]Proc{slow, DoneProc(0)}))
	assert.Equal(t, int32(1), ran.Load())
}

func TestStartExecStatus(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no sh")
	}
	c := New("sush", nil, nil)

	p, err := c.StartExec(exec.Command(sh, "-c", "exit 3"))
	require.NoError(t, err)
	assert.NotZero(t, p.Pid())
	assert.Equal(t, 3, p.Wait())
	assert.Equal(t, 3, p.Wait())

	p, err = c.StartExec(exec.Command(sh, "-c", "kill -TERM $$"))
	require.NoError(t, err)
	assert.Equal(t, StatusSignalBase+15, p.Wait())
}

func TestBackgroundJobs(t *testing.T) {
	c := New("sush", nil, nil)
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		c.Go("job", func() int {
			n.Add(1)
			return 0
		})
	}
	c.WaitBackground()
	assert.Equal(t, int32(3), n.Load())
	assert.Equal(t, "job", c.GetParam("!"))
}

func TestChdirIsPerCore(t *testing.T) {
	c := New("sush", nil, nil)
	c.Fs = afero.NewMemMapFs()
	require.NoError(t, c.Fs.MkdirAll("/work/sub", 0o755))
	require.NoError(t, afero.WriteFile(c.Fs, "/work/file", nil, 0o644))

	require.NoError(t, c.Chdir("/work"))
	s := c.Subshell()
	require.NoError(t, s.Chdir("sub"))
	assert.Equal(t, "/work/sub", s.Dir())
	assert.Equal(t, "/work", s.GetParam("OLDPWD"))
	assert.Equal(t, "/work", c.Dir())

	assert.Error(t, c.Chdir("file"))
	assert.Error(t, c.Chdir("missing"))
	assert.Equal(t, "/work", c.Dir())
}

func TestLookPath(t *testing.T) {
	c := New("sush", nil, []string{"PATH=/bin:/usr/bin"})
	c.Fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(c.Fs, "/usr/bin/tool", nil, 0o755))
	require.NoError(t, afero.WriteFile(c.Fs, "/bin/data", nil, 0o644))
	require.NoError(t, c.Fs.MkdirAll("/home", 0o755))
	require.NoError(t, c.Chdir("/home"))
	require.NoError(t, afero.WriteFile(c.Fs, "/home/run.sh", nil, 0o700))

	p, err := c.LookPath("tool")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/tool", p)

	_, err = c.LookPath("data")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = c.LookPath("./run.sh")
	require.NoError(t, err)
	assert.Equal(t, "/home/run.sh", p)

	_, err = c.LookPath("/bin/data")
	assert.ErrorIs(t, err, fs.ErrPermission)
}
