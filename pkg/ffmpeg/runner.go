package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Process represents a running ffmpeg process with lifecycle management.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	done   chan struct{}
	err    error
	stderr bytes.Buffer
}

// PID returns the process ID, or 0 if not started.
func (p *Process) PID() int {
	return p.pid
}

// Wait blocks until the process completes and returns any error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Done returns a channel that closes when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Stderr returns the captured stderr output (available after Wait).
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Start starts an ffmpeg process and returns a Process handle for lifecycle management.
// When progress is non-nil, args must request "-progress pipe:1"; updates are
// sent on the channel and the channel is closed after the process exits, or
// immediately if the process cannot be started.
// The caller is responsible for calling Wait() or Kill() to clean up.
func Start(ctx context.Context, args []string, progress chan<- Progress) (*Process, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	cmd.Stderr = &p.stderr

	var stdout io.ReadCloser
	if progress != nil {
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			close(progress)
			return nil, fmt.Errorf("ffmpeg: failed to create stdout pipe: %w", err)
		}
		stdout = pipe
	}

	if err := cmd.Start(); err != nil {
		if progress != nil {
			close(progress)
		}
		return nil, fmt.Errorf("ffmpeg: failed to start: %w", err)
	}
	p.pid = cmd.Process.Pid

	go func() {
		defer close(p.done)

		if stdout != nil {
			ParseProgressOutput(bufio.NewScanner(stdout), progress)
			// Drain anything left after "progress=end" so Wait does not block.
			_, _ = io.Copy(io.Discard, stdout)
		}

		p.err = cmd.Wait()
		if p.err != nil {
			p.err = &Error{
				Args:   args,
				Stderr: p.stderr.String(),
				Err:    p.err,
			}
		}
		if progress != nil {
			close(progress)
		}
	}()

	return p, nil
}

// run executes ffmpeg and waits for completion.
// This is the simple "fire and wait" path.
func run(ctx context.Context, args []string, progress chan<- Progress) error {
	proc, err := Start(ctx, args, progress)
	if err != nil {
		return err
	}
	return proc.Wait()
}

// Error represents an ffmpeg execution error with context.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	if tail := e.Diagnostic(); tail != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, tail)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

// Diagnostic returns the last few lines of stderr, which is where ffmpeg
// reports the reason for a failure.
func (e *Error) Diagnostic() string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Command returns the command that was executed.
func (e *Error) Command() string {
	return "ffmpeg " + strings.Join(e.Args, " ")
}
