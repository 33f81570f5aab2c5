package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/logging"
)

// Command describes one process to run.
type Command struct {
	// Args is the argv of the process; Args[0] is resolved through PATH.
	Args []string

	// Dir is the working directory and, under Bwrap, the only writable
	// host path.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Sandbox runs commands in some execution context.
type Sandbox interface {
	// Run blocks until the command exits. A non-zero exit is reported
	// as *ExitError.
	Run(ctx context.Context, cmd *Command) error

	// Name identifies the backend in logs and diagnostics.
	Name() string
}

// ExitError represents a non-zero exit from the sandboxed command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// IsExitError checks if an error is an ExitError and returns the code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// New selects a backend. With isolation enabled it probes bubblewrap and
// returns ErrSandboxUnavailable when the probe fails.
func New(isolated bool, logger *logging.Logger) (Sandbox, error) {
	if !isolated {
		logger.Debugf("sandbox disabled, running editor without isolation")
		return &Passthrough{}, nil
	}

	caps := DetectCapabilities()
	if !caps.CanRunSandbox() {
		return nil, fmt.Errorf("%w: %s", derrors.ErrSandboxUnavailable, caps.SkipReason())
	}
	logger.Debugf("using bubblewrap at %s (%s)", caps.BwrapPath, caps.BwrapVersion)
	return &Bwrap{Path: caps.BwrapPath, Logger: logger}, nil
}

// run executes argv with cmd's working directory and stdio.
func run(ctx context.Context, argv []string, cmd *Command, env []string) error {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = env
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("command interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}

// Passthrough runs commands directly on the host.
type Passthrough struct{}

func (p *Passthrough) Name() string { return "none" }

func (p *Passthrough) Run(ctx context.Context, cmd *Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("command is required")
	}
	return run(ctx, cmd.Args, cmd, os.Environ())
}
