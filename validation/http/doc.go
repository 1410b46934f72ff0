// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package http validates values that pdmkit places into HTTP requests.

Minted OIDC tokens and passwords are sent in an Authorization header, so
they are checked with [golang.org/x/net/http/httpguts] before use; a token
containing CR or LF would otherwise allow header injection.

	if err := http.ValidateToken(minted); err != nil {
		return err
	}

Repository URLs from configuration files and flags are checked with
ValidateRepositoryURL when the configuration is merged.
*/
package http
