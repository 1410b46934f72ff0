// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/pdmkit/archive"
)

func TestOpenPackage_ParseMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename  string
		write     func(t *testing.T, dir, filename string) string
		pyversion string
		filetype  string
	}{
		{
			filename: "demo-0.0.1-py2.py3-none-any.whl",
			write: func(t *testing.T, dir, filename string) string {
				return writeWheel(t, dir, filename, demoMetadata)
			},
			pyversion: "py2.py3",
			filetype:  FileTypeWheel,
		},
		{
			filename: "demo-0.0.1.tar.gz",
			write: func(t *testing.T, dir, filename string) string {
				return writeSdist(t, dir, filename, "demo-0.0.1", demoMetadata)
			},
			pyversion: "source",
			filetype:  FileTypeSdist,
		},
		{
			filename: "demo-0.0.1.zip",
			write: func(t *testing.T, dir, filename string) string {
				return writeZipSdist(t, dir, filename, "demo-0.0.1", demoMetadata)
			},
			pyversion: "source",
			filetype:  FileTypeSdist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			path := tt.write(t, t.TempDir(), tt.filename)
			pkg, err := OpenPackage(path)
			require.NoError(t, err)

			assert.Equal(t, tt.filename, pkg.BaseName())
			assert.Equal(t, "demo", pkg.Name())
			assert.Equal(t, "0.0.1", pkg.Version())
			assert.Equal(t, tt.pyversion, pkg.PyVersion)
			assert.Equal(t, tt.filetype, pkg.FileType)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			sum := sha256.Sum256(data)
			assert.Equal(t, hex.EncodeToString(sum[:]), pkg.SHA256)
			assert.Len(t, pkg.MD5, 32)
			assert.Len(t, pkg.Blake2256, 64)

			fields := fieldMap(pkg.MetadataFields())
			for _, name := range []string{"md5_digest", "sha256_digest", "blake2_256_digest"} {
				assert.NotEmpty(t, fields[name], name)
			}
			assert.Equal(t, []string{tt.pyversion}, fields["pyversion"])
			assert.Nil(t, pkg.Signature)
		})
	}
}

func fieldMap(fields []Field) map[string][]string {
	m := map[string][]string{}
	for _, f := range fields {
		m[f.Name] = append(m[f.Name], f.Value)
	}
	return m
}

func TestOpenPackage_NonASCIIMetadata(t *testing.T) {
	t.Parallel()

	metadata := "Metadata-Version: 2.1\n" +
		"Name: caj2pdf-restructured\n" +
		"Version: 0.1.0a6\n" +
		"Summary: caj2pdf 重新组织，方便打包与安装\n" +
		"Author-Email: 张三 <san@zhang.me>\n" +
		"Description-Content-Type: text/markdown\n" +
		"\n" +
		"# caj2pdf\n\n测试中文项目\n"
	path := writeSdist(t, t.TempDir(), "caj2pdf-restructured-0.1.0a6.tar.gz", "caj2pdf-restructured-0.1.0a6", metadata)

	pkg, err := OpenPackage(path)
	require.NoError(t, err)

	fields := fieldMap(pkg.MetadataFields())
	assert.Equal(t, []string{"caj2pdf 重新组织，方便打包与安装"}, fields["summary"])
	assert.Equal(t, []string{"张三 <san@zhang.me>"}, fields["author_email"])
	assert.Equal(t, "# caj2pdf\n\n测试中文项目", strings.TrimSpace(pkg.Description()))
}

func TestPackage_MetadataFields(t *testing.T) {
	t.Parallel()

	pkg, err := OpenPackage(writeWheel(t, t.TempDir(), "demo-0.0.1-py3-none-any.whl", demoMetadata))
	require.NoError(t, err)
	pkg.Comment = "release notes"

	fields := pkg.MetadataFields()
	require.GreaterOrEqual(t, len(fields), 4)
	assert.Equal(t, Field{"name", "demo"}, fields[0])
	assert.Equal(t, Field{"version", "0.0.1"}, fields[1])

	m := fieldMap(fields)
	assert.Equal(t, []string{"bdist_wheel"}, m["filetype"])
	assert.Equal(t, []string{"2.1"}, m["metadata_version"])
	assert.Equal(t, []string{"Frost Ming <me@frostming.com>"}, m["author_email"])
	assert.Equal(t, []string{
		"Programming Language :: Python :: 3",
		"License :: OSI Approved :: MIT License",
	}, m["classifiers"])
	assert.Equal(t, []string{">=3.8"}, m["requires_python"])
	assert.Equal(t, []string{"requests"}, m["requires_dist"])
	assert.Equal(t, []string{"release notes"}, m["comment"])
	assert.Contains(t, m["description"][0], "The long description.")
	assert.NotContains(t, m, "maintainer", "empty fields are omitted")
}

func TestPackage_AddSignature(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pkg, err := OpenPackage(writeWheel(t, dir, "demo-0.0.1-py2.py3-none-any.whl", demoMetadata))
	require.NoError(t, err)

	sig := filepath.Join(dir, "signature.asc")
	require.NoError(t, os.WriteFile(sig, []byte("test gpg signature"), 0o600))
	require.NoError(t, pkg.AddSignature(sig))
	assert.Equal(t, &Signature{Name: "signature.asc", Content: []byte("test gpg signature")}, pkg.Signature)

	assert.Error(t, pkg.AddSignature(filepath.Join(dir, "missing.asc")))
}

func TestOpenPackage_PicksUpSignature(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeWheel(t, dir, "demo-0.0.1-py3-none-any.whl", demoMetadata)
	require.NoError(t, os.WriteFile(path+".asc", []byte("fake signature"), 0o600))

	pkg, err := OpenPackage(path)
	require.NoError(t, err)
	require.NotNil(t, pkg.Signature)
	assert.Equal(t, "demo-0.0.1-py3-none-any.whl.asc", pkg.Signature.Name)
	assert.Equal(t, []byte("fake signature"), pkg.Signature.Content)
}

func TestOpenPackage_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := OpenPackage(writeFixture(t, dir, "demo.egg", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	data, err := archive.CreateZip([]archive.FileEntry{{Path: "demo/__init__.py", Content: []byte("")}})
	require.NoError(t, err)
	_, err = OpenPackage(writeFixture(t, dir, "demo-0.0.1-py3-none-any.whl", data))
	assert.ErrorIs(t, err, archive.ErrMemberNotFound)

	_, err = OpenPackage(writeSdist(t, dir, "demo-0.0.1.tar.gz", "demo-0.0.1", "Metadata-Version: 2.1\nName: demo\n"))
	assert.ErrorContains(t, err, "lacks Name or Version")

	// PKG-INFO of a vendored package deeper in the tree is not the sdist metadata.
	nested, err := archive.CompressTar([]archive.FileEntry{
		{Path: "demo-0.0.1/vendor/x/PKG-INFO", Content: []byte(demoMetadata)},
	}, archive.TarOptions{}, archive.GzipOptions{})
	require.NoError(t, err)
	_, err = OpenPackage(writeFixture(t, dir, "nested-0.0.1.tar.gz", nested))
	assert.ErrorIs(t, err, archive.ErrMemberNotFound)
}

func TestWheelPyVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "py2.py3", wheelPyVersion("demo-0.0.1-py2.py3-none-any.whl"))
	assert.Equal(t, "cp312", wheelPyVersion("demo-0.0.1-1-cp312-cp312-manylinux_2_17_x86_64.whl"))
	assert.Empty(t, wheelPyVersion("broken.whl"))
}
