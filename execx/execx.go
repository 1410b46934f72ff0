// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package execx

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=execx.go -destination=mocks/mock_runner.go -package=mocks Runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// maxErrorOutput bounds the command output kept in a CommandError.
const maxErrorOutput = 4096

// Runner runs external programs.
type Runner interface {
	// Run runs the command to completion. Output is captured and attached
	// to the returned *CommandError when the command fails.
	Run(ctx context.Context, name string, args ...string) error

	// Output runs the command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath searches for an executable named file in the PATH.
	LookPath(file string) (string, error)
}

// CommandError describes a command that could not be run or exited non-zero.
type CommandError struct {
	Args     []string
	Output   string
	ExitCode int
	err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("an error occurred when executing %s: %v", strings.Join(e.Args, " "), e.err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.err
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Stdout and Stderr, when set, receive the output of Run as it is produced.
	Stdout io.Writer
	Stderr io.Writer
	// Dir is the working directory of started commands.
	Dir string
}

var _ Runner = (*Exec)(nil)

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var captured bytes.Buffer
	cmd.Stdout = teeTo(&captured, e.Stdout)
	cmd.Stderr = teeTo(&captured, e.Stderr)

	if err := cmd.Run(); err != nil {
		return newCommandError(append([]string{name}, args...), captured.Bytes(), err)
	}
	return nil
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, newCommandError(append([]string{name}, args...), stderr.Bytes(), err)
	}
	return out, nil
}

// LookPath implements Runner.
func (*Exec) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func newCommandError(args []string, output []byte, err error) *CommandError {
	out := strings.TrimSpace(string(output))
	if len(out) > maxErrorOutput {
		out = out[len(out)-maxErrorOutput:]
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{Args: args, Output: out, ExitCode: code, err: err}
}
