// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package execx runs the external programs pdmkit collaborates with: the
// Python interpreter and pip during installation, gpg for signing, the
// build backend, and the CI agents that hand out OIDC tokens.
//
// Production code depends on the [Runner] interface; tests use the
// generated mock in the mocks sub-package.
package execx
