// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package execx

import (
	"bytes"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExec_Run(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var stdout bytes.Buffer
	r := &Exec{Stdout: &stdout}

	require.NoError(t, r.Run(t.Context(), "sh", "-c", "echo hello"))
	assert.Equal(t, "hello\n", stdout.String())
}

func TestExec_RunFailure(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r := &Exec{}
	err := r.Run(t.Context(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "broken", cmdErr.Output)
	assert.Contains(t, err.Error(), "an error occurred when executing sh -c")

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestExec_Output(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r := &Exec{}
	out, err := r.Output(t.Context(), "sh", "-c", "printf token; echo noise >&2")
	require.NoError(t, err)
	assert.Equal(t, "token", string(out))

	_, err = r.Output(t.Context(), "sh", "-c", "echo nope >&2; exit 1")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "nope", cmdErr.Output)
}

func TestExec_MissingProgram(t *testing.T) {
	t.Parallel()

	r := &Exec{}
	err := r.Run(t.Context(), "pdmkit-definitely-not-installed")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, -1, cmdErr.ExitCode)

	_, err = r.LookPath("pdmkit-definitely-not-installed")
	assert.Error(t, err)
}
