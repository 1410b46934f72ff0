// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command install-pdm installs PDM into an isolated virtual environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stacklok/pdmkit/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewInstallCommand(cli.Deps{}), os.Args[1:])
	stop()
	os.Exit(code)
}
