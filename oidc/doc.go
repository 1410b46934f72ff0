// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package oidc exchanges a CI identity token for a short-lived package index
upload token ("trusted publishing").

The exchange has three legs:

 1. The index announces the audience it expects at {base}/_/oidc/audience.
 2. The CI platform the process runs on issues an identity token for that
    audience. Supported platforms are GitHub Actions, GitLab CI, Buildkite
    and CircleCI; see [DefaultPlatforms].
 3. The identity token is posted to {base}/_/oidc/mint-token and the index
    answers with an API token usable as the password of the "__token__" user.

# Usage

	m := oidc.NewMinter(
		oidc.WithHTTPClient(client),
		oidc.WithEnv(env.Snapshot()),
	)
	token, err := m.Mint(ctx, "https://upload.pypi.org")

Every failure is returned as a [pdmerr.UsageError] and logged at error level.
When the index rejects the identity token, the claims of that token are
decoded (without signature verification) and included in the error so the
operator can compare them with the trusted publisher configured on the index.
*/
package oidc
