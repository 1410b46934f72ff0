// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package credentials stores long-lived index credentials keyed by upload URL.
//
// The [Keyring] store delegates to oras-go's credential stores, which talk to
// the same docker-credential-* helper programs Docker uses: the macOS
// keychain, the Windows credential manager, the freedesktop secret service
// or pass. Absence of an entry is not an error; callers continue their
// resolution chain.
//
//	store, err := credentials.NewKeyring(credentials.WithNativeHelper("secretservice"))
//	cred, ok, err := store.Lookup(ctx, "https://upload.pypi.org/legacy/")
package credentials
