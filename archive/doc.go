// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package archive reads single members out of wheel (zip) and source
// distribution (tar.gz, zip) archives with bounded memory, and writes small
// reproducible archives.
//
// Reads never extract to disk: FindTarGzMember and FindZipMember stream the
// archive and return the first regular file accepted by a Matcher.
//
//	entry, err := archive.FindZipMember("dist/demo-0.0.1-py3-none-any.whl",
//		func(name string) bool { return strings.HasSuffix(name, ".dist-info/METADATA") },
//		archive.MaxMemberSize)
package archive
