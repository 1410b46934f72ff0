// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/pdmkit/archive"
)

const demoMetadata = `Metadata-Version: 2.1
Name: demo
Version: 0.0.1
Summary: A demo package
Author-email: Frost Ming <me@frostming.com>
License: MIT
Classifier: Programming Language :: Python :: 3
Classifier: License :: OSI Approved :: MIT License
Requires-Python: >=3.8
Requires-Dist: requests
Description-Content-Type: text/markdown

# demo

The long description.
`

// writeWheel writes a wheel for demoMetadata-like metadata into dir.
func writeWheel(t *testing.T, dir, filename, metadata string) string {
	t.Helper()
	data, err := archive.CreateZip([]archive.FileEntry{
		{Path: "demo/__init__.py", Content: []byte("")},
		{Path: "demo-0.0.1.dist-info/METADATA", Content: []byte(metadata)},
		{Path: "demo-0.0.1.dist-info/WHEEL", Content: []byte("Wheel-Version: 1.0\n")},
	})
	require.NoError(t, err)
	return writeFixture(t, dir, filename, data)
}

// writeSdist writes a gzipped tar sdist into dir.
func writeSdist(t *testing.T, dir, filename, top, metadata string) string {
	t.Helper()
	data, err := archive.CompressTar([]archive.FileEntry{
		{Path: top + "/PKG-INFO", Content: []byte(metadata)},
		{Path: top + "/demo/__init__.py", Content: []byte("")},
		{Path: top + "/pyproject.toml", Content: []byte("[project]\nname = \"demo\"\n")},
	}, archive.TarOptions{}, archive.GzipOptions{})
	require.NoError(t, err)
	return writeFixture(t, dir, filename, data)
}

// writeZipSdist writes a zip sdist into dir.
func writeZipSdist(t *testing.T, dir, filename, top, metadata string) string {
	t.Helper()
	data, err := archive.CreateZip([]archive.FileEntry{
		{Path: top + "/PKG-INFO", Content: []byte(metadata)},
		{Path: top + "/demo/__init__.py", Content: []byte("")},
	})
	require.NoError(t, err)
	return writeFixture(t, dir, filename, data)
}

func writeFixture(t *testing.T, dir, filename string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

// writeDemoDist populates dir with a wheel, a tar.gz and a zip sdist.
func writeDemoDist(t *testing.T, dir string) {
	t.Helper()
	writeSdist(t, dir, "demo-0.0.1.tar.gz", "demo-0.0.1", demoMetadata)
	writeZipSdist(t, dir, "demo-0.0.1.zip", "demo-0.0.1", demoMetadata)
	writeWheel(t, dir, "demo-0.0.1-py2.py3-none-any.whl", demoMetadata)
}
