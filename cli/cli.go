// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stacklok/pdmkit/credentials"
	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/pdmerr"
	"github.com/stacklok/pdmkit/termui"
)

// Deps are the outside-world collaborators of the commands. Zero values
// select the process environment, os.Stdin, the platform keyring and
// os/exec.
type Deps struct {
	Env    env.Reader
	Stdin  io.Reader
	Store  credentials.Store
	Runner execx.Runner
}

func (d Deps) withDefaults() Deps {
	if d.Env == nil {
		d.Env = env.Snapshot()
	}
	if d.Stdin == nil {
		d.Stdin = os.Stdin
	}
	return d
}

// Execute runs cmd with args, reports a failure on the command's stderr and
// returns the process exit code.
func Execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return pdmerr.ExitOK
	}
	termui.NewPlain(cmd.ErrOrStderr()).Error("%v", err)
	return exitCode(err)
}

// exitCode prefers the exit status of a failed subprocess over the generic
// failure code.
func exitCode(err error) int {
	var cmdErr *execx.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 && !pdmerr.IsUsage(err) {
		return cmdErr.ExitCode
	}
	return pdmerr.ExitCode(err)
}

func usageFlagError(_ *cobra.Command, err error) error {
	return pdmerr.WrapUsage(err, "invalid arguments")
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return pdmerr.Usage("unexpected arguments for %s: %v", cmd.CommandPath(), args)
	}
	return nil
}

func newRootCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              noArgs,
		PersistentPreRunE: setupLogger,
		DisableAutoGenTag: true,
	}
	cmd.SetFlagErrorFunc(usageFlagError)
	RegisterLoggingFlags(cmd)
	return cmd
}

func boolPtr(b bool) *bool { return &b }

var errConflictingFlags = errors.New("conflicting flags")

func conflicting(a, b string) error {
	return pdmerr.WrapUsage(errConflictingFlags, "--%s and --%s", a, b)
}
