// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package cli provides the cobra commands behind the pdm-publish and
install-pdm binaries.

Both commands share the persistent logging flags and the error reporting
of Execute, which prints the failure once on stderr and maps it to an exit
code:

	cmd := cli.NewPublishCommand(cli.Deps{})
	os.Exit(cli.Execute(ctx, cmd, os.Args[1:]))

Collaborators that touch the outside world (environment, standard input,
the credential store, external programs) are taken from Deps so tests can
replace them.
*/
package cli
