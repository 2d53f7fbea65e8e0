// Package command runs the operating system diagnostic utilities (ping,
// traceroute, tracert) and returns their combined output with the exit code.
//
// A utility that is not installed is reported as a CommandError with code
// COMMAND_NOT_FOUND. A utility that runs and exits nonzero is not an error:
// its text and exit code are returned so the caller can still parse or show
// them.
package command

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks github.com/anstrom/netdiag/internal/command Runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
)

// Output is the result of a command that ran.
type Output struct {
	Text     string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status zero.
func (o Output) Success() bool {
	return o.ExitCode == 0
}

// waitDelay bounds how long Run waits for the output pipe to close once
// the command was killed or has exited.
const waitDelay = 500 * time.Millisecond

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env replaces the process environment when non-nil.
	Env []string
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner. stdout and stderr are captured into one text.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return Output{}, errors.ErrCommandNotFound(name, err)
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if r.Env != nil {
		cmd.Env = r.Env
	}
	killGroup(cmd)
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err = cmd.Run()
	out := Output{Text: buf.String(), Duration: time.Since(start)}

	logging.Debug("Command finished",
		"command", name,
		"args", args,
		"duration", out.Duration,
		"error", err)

	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil && out.ExitCode < 0 {
			return out, errors.WrapCommandError(name, ctx.Err())
		}
		return out, nil
	}
	if isNotFound(err) {
		return Output{}, errors.ErrCommandNotFound(name, err)
	}
	if ctx.Err() != nil {
		return out, errors.WrapCommandError(name, ctx.Err())
	}
	return out, errors.WrapCommandError(name, err)
}

func isNotFound(err error) bool {
	return stderrors.Is(err, exec.ErrNotFound) ||
		stderrors.Is(err, fs.ErrNotExist) ||
		stderrors.Is(err, syscall.ENOENT)
}

// IsWindows reports whether goos names Windows. An empty goos means the
// running platform.
func IsWindows(goos string) bool {
	if goos == "" {
		goos = runtime.GOOS
	}
	return goos == "windows"
}
