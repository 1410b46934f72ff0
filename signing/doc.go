// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package signing produces ASCII-armored detached signatures for package
// files. The signature of "dist/demo-0.0.1.tar.gz" is written next to it as
// "dist/demo-0.0.1.tar.gz.asc", the name the upload step looks for.
//
// Two signers are provided: [GPG] shells out to the gpg binary and uses the
// user's agent and keyring, [OpenPGP] signs in-process with an armored
// private key file.
package signing
