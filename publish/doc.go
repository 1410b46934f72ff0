// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package publish uploads Python distributions to a package index using the
legacy upload API.

A run has three parts:

  - [Resolver] picks the credentials for the repository. Explicit username
    and password win; otherwise the credential store is consulted, then
    trusted publishing (OIDC) for indexes that support it, then an
    interactive prompt.
  - [Repository] owns the HTTP client for the index and uploads one
    [Package] per request as multipart form data.
  - [Publisher] optionally builds the project, collects and signs the files
    in the dist directory, uploads wheels before source distributions and
    reports the release pages.

Trusted publishing is attempted when no password is configured, the
username is empty or "__token__", and the repository sets
trusted_publishing: true or its host is one of
[DefaultTrustedPublishingHosts].
*/
package publish
