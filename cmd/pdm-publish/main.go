// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command pdm-publish builds a Python project and uploads it to a package index.
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
	code := cli.Execute(ctx, cli.NewPublishCommand(cli.Deps{}), os.Args[1:])
	stop()
	os.Exit(code)
}
