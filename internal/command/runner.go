package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultStderrLimit caps the stderr kept in errors and logs.
const DefaultStderrLimit = 8 << 10

var (
	ErrNotFound = errors.New("executable not found")
	ErrTimeout  = errors.New("command timed out")
)

// Cmd describes one external tool invocation.
type Cmd struct {
	Name        string
	Args        []string
	Timeout     time.Duration // zero: bounded by ctx only
	StderrLimit int           // zero: DefaultStderrLimit
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Output is what a finished command printed. Stderr is already trimmed and
// truncated to the command's limit.
type Output struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Error is a failed invocation. ExitCode is positive when the process ran and
// reported failure, -1 when it never started or was killed.
type Error struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Name + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Exited reports whether the tool ran to completion and rejected its input,
// as opposed to a missing binary, a kill or a timeout.
func (e *Error) Exited() bool { return e.ExitCode > 0 }

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, c Cmd, logger *slog.Logger) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Cmd, logger *slog.Logger) (Output, error) {
	if logger == nil {
		logger = slog.Default()
	}
	limit := c.StderrLimit
	if limit <= 0 {
		limit = DefaultStderrLimit
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	logger.Debug("exec.start", "cmd_line", c.String(), "timeout", c.Timeout)
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	runErr := cmd.Run()

	res := Output{
		Stdout:   out.Bytes(),
		Stderr:   Truncate(strings.TrimSpace(errb.String()), limit),
		Duration: time.Since(start),
	}
	if runErr == nil {
		logger.Debug("exec.ok",
			"cmd", c.Name,
			"duration_ms", res.Duration.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
		return res, nil
	}

	err := classify(ctx, c, runErr, res.Stderr)
	logger.Error("exec.failed",
		"cmd", c.Name,
		"duration_ms", res.Duration.Milliseconds(),
		"exit_code", err.ExitCode,
		"error", runErr,
		"stderr", res.Stderr,
	)
	return res, err
}

func classify(ctx context.Context, c Cmd, runErr error, stderr string) *Error {
	e := &Error{Name: c.Name, ExitCode: -1, Stderr: stderr, Err: runErr}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		e.Err = fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
	case errors.Is(runErr, exec.ErrNotFound):
		e.Err = errors.Join(ErrNotFound, runErr)
	default:
		var ee *exec.ExitError
		if errors.As(runErr, &ee) && ee.ExitCode() > 0 {
			e.ExitCode = ee.ExitCode()
		}
	}
	return e
}

// Truncate caps s at max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
