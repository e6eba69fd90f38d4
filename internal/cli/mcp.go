package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/sush/internal/interp"
)

// NewMCPServer exposes the parser and the interpreter as MCP tools:
// "parse" returns the syntax tree dump of a script and "run" executes it on
// a fresh shell and reports its status and output.
func NewMCPServer(env *Env, version string) *server.MCPServer {
	s := server.NewMCPServer("sush", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("parse",
		mcp.WithDescription("Parse a sush script and return its syntax tree"),
		mcp.WithString("script", mcp.Required(), mcp.Description("Script source")),
	), env.handleParse)

	s.AddTool(mcp.NewTool("run",
		mcp.WithDescription("Run a sush script on a fresh shell and return its exit status, stdout and stderr"),
		mcp.WithString("script", mcp.Required(), mcp.Description("Script source")),
		mcp.WithString("cwd", mcp.Description("Working directory; defaults to the server's")),
	), env.handleRun)

	return s
}

// ServeMCP serves the tools over stdin/stdout until input closes.
func ServeMCP(env *Env, version string) error {
	return server.ServeStdio(NewMCPServer(env, version))
}

func (e *Env) handleParse(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := req.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out, errs bytes.Buffer
	if RunParse(e.NewParser(), script, &out, &errs) != 0 {
		return mcp.NewToolResultError(strings.TrimSpace(errs.String())), nil
	}
	return mcp.NewToolResultText(out.String()), nil
}

func (e *Env) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := req.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out, errs lockedBuffer
	sess, err := e.NewSession("sush", nil, interp.Stdio{In: strings.NewReader(""), Out: &out, Err: &errs})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if cwd := req.GetString("cwd", ""); cwd != "" {
		if err := sess.Runner.Core.Chdir(cwd); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cwd: %v", err)), nil
		}
	}
	status := sess.RunString(ctx, script)
	sess.Runner.Core.WaitBackground()
	return mcp.NewToolResultText(fmt.Sprintf("exit status: %d\n--- stdout ---\n%s--- stderr ---\n%s", status, out.String(), errs.String())), nil
}

// lockedBuffer collects output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
