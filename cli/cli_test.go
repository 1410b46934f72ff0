// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/pdmerr"
)

// run executes cmd and returns its exit code with the captured output.
func run(t *testing.T, cmd *cobra.Command, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := Execute(t.Context(), cmd, args)
	return code, stdout.String(), stderr.String()
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	cmdErr := &execx.CommandError{Args: []string{"pip"}, ExitCode: 7}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain failure", errors.New("boom"), pdmerr.ExitFailure},
		{"usage", pdmerr.Usage("missing"), pdmerr.ExitUsage},
		{"wrapped subprocess", fmt.Errorf("installing: %w", cmdErr), 7},
		{"subprocess not started", &execx.CommandError{ExitCode: -1}, pdmerr.ExitFailure},
		{"usage wins over subprocess", pdmerr.WrapUsage(cmdErr, "no token"), pdmerr.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExecute_ArgumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown flag", []string{"--bogus"}, "invalid arguments"},
		{"positional argument", []string{"extra"}, "unexpected arguments"},
		{"bad log level", []string{"--loglevel", "loud"}, "invalid log level: loud"},
		{"bad log format", []string{"--logformat", "xml"}, "invalid log format: xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := run(t, NewPublishCommand(Deps{}), tt.args...)
			assert.Equal(t, pdmerr.ExitUsage, code)
			assert.Contains(t, stderr, "[ERROR]:")
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}
