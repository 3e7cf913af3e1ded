// Package worker spawns and supervises the external render process for a
// single job: one invocation, payload on stdin, both output streams drained,
// exit awaited. Interpreting the result is the orchestrator's job.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// Result captures the observable outcome of one worker invocation. The exit
// code is informational only; success is signalled through the output
// descriptor file, not the code.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes the configured worker command for one job at a time.
type Runner struct {
	command string
	script  string
	dir     string
}

// NewRunner returns a Runner invoking "command script <job id>" inside dir.
func NewRunner(command, script, dir string) *Runner {
	return &Runner{command: command, script: script, dir: dir}
}

// DescriptorPath returns where the worker writes the output descriptor for a job.
func (r *Runner) DescriptorPath(jobID string) string {
	return filepath.Join(r.dir, fmt.Sprintf("output_info_%s.json", jobID))
}

// Execute runs the worker to completion. The payload is written to the
// worker's stdin and the stream is closed so the worker sees end-of-input.
// Stdout and stderr are drained concurrently with each other and with the
// exit wait; a full pipe buffer can never wedge the process. A spawn failure
// is returned as an error before any exit code exists; a non-zero exit is not
// an error.
func (r *Runner) Execute(ctx context.Context, jobID string, payload []byte) (*Result, error) {
	cmd := exec.CommandContext(ctx, r.command, r.script, jobID)
	cmd.Dir = r.dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn worker: %w", err)
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		_, err := stdin.Write(payload)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	ioErr := g.Wait()
	waitErr := cmd.Wait()

	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
	}

	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return res, fmt.Errorf("wait worker: %w", waitErr)
		}
	}
	if ioErr != nil {
		// A broken stdin pipe just means the worker stopped reading early;
		// the descriptor file decides whether the job succeeded.
		if !errorsIsBrokenPipe(ioErr) {
			return res, fmt.Errorf("worker io: %w", ioErr)
		}
	}
	return res, nil
}

func errorsIsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}
