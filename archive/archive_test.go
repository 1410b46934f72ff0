// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasSuffix(suffix string) Matcher {
	return func(name string) bool { return strings.HasSuffix(name, suffix) }
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestCreateTar_Reproducible(t *testing.T) {
	t.Parallel()

	files1 := []FileEntry{
		{Path: "b.txt", Content: []byte("b")},
		{Path: "a.txt", Content: []byte("a")},
	}
	files2 := []FileEntry{
		{Path: "a.txt", Content: []byte("a")},
		{Path: "b.txt", Content: []byte("b")},
	}

	tar1, err := CreateTar(files1, TarOptions{})
	require.NoError(t, err)
	tar2, err := CreateTar(files2, TarOptions{Epoch: time.Unix(0, 0).UTC()})
	require.NoError(t, err)

	assert.Equal(t, tar1, tar2, "CreateTar should sort files and default the epoch")
}

func TestCompress_Header(t *testing.T) {
	t.Parallel()

	data, err := Compress([]byte("hello"), GzipOptions{})
	require.NoError(t, err)

	gr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gr.Close()

	assert.Equal(t, byte(gzipOSUnknown), gr.OS)
	assert.Empty(t, gr.Name)
	assert.Equal(t, int64(0), gr.ModTime.Unix())
}

func TestFindTarGzMember(t *testing.T) {
	t.Parallel()

	data, err := CompressTar([]FileEntry{
		{Path: "demo-0.0.1/demo/__init__.py", Content: []byte("")},
		{Path: "demo-0.0.1/PKG-INFO", Content: []byte("Name: demo\n")},
	}, TarOptions{}, GzipOptions{})
	require.NoError(t, err)
	p := writeFile(t, "demo-0.0.1.tar.gz", data)

	t.Run("finds member", func(t *testing.T) {
		t.Parallel()
		entry, err := FindTarGzMember(p, hasSuffix("/PKG-INFO"), MaxMemberSize)
		require.NoError(t, err)
		assert.Equal(t, "demo-0.0.1/PKG-INFO", entry.Path)
		assert.Equal(t, "Name: demo\n", string(entry.Content))
	})

	t.Run("missing member", func(t *testing.T) {
		t.Parallel()
		_, err := FindTarGzMember(p, hasSuffix("METADATA"), MaxMemberSize)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()
		_, err := FindTarGzMember(p, hasSuffix("/PKG-INFO"), 3)
		assert.ErrorContains(t, err, "exceeds maximum size")
	})

	t.Run("not gzip", func(t *testing.T) {
		t.Parallel()
		bad := writeFile(t, "bad.tar.gz", []byte("plain text"))
		_, err := FindTarGzMember(bad, hasSuffix("PKG-INFO"), MaxMemberSize)
		assert.ErrorContains(t, err, "creating gzip reader")
	})
}

func TestFindTarMember_SkipsUnsafeEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../PKG-INFO", Typeflag: tar.TypeReg, Size: 4, Mode: 0644}))
	_, err := tw.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "pkg/PKG-INFO", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "pkg-1.0/PKG-INFO", Typeflag: tar.TypeReg, Size: 2, Mode: 0644}))
	_, err = tw.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	entry, err := FindTarMember(&buf, hasSuffix("PKG-INFO"), MaxMemberSize)
	require.NoError(t, err)
	assert.Equal(t, "pkg-1.0/PKG-INFO", entry.Path)
	assert.Equal(t, "ok", string(entry.Content))
}

func TestFindZipMember(t *testing.T) {
	t.Parallel()

	data, err := CreateZip([]FileEntry{
		{Path: "demo/__init__.py", Content: []byte("")},
		{Path: "demo-0.0.1.dist-info/METADATA", Content: []byte("Name: demo\n")},
		{Path: "demo-0.0.1.dist-info/WHEEL", Content: []byte("Wheel-Version: 1.0\n")},
	})
	require.NoError(t, err)
	p := writeFile(t, "demo-0.0.1-py3-none-any.whl", data)

	entry, err := FindZipMember(p, hasSuffix(".dist-info/METADATA"), MaxMemberSize)
	require.NoError(t, err)
	assert.Equal(t, "demo-0.0.1.dist-info/METADATA", entry.Path)
	assert.Equal(t, "Name: demo\n", string(entry.Content))

	_, err = FindZipMember(p, hasSuffix("PKG-INFO"), MaxMemberSize)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = FindZipMember(p, hasSuffix(".dist-info/METADATA"), 2)
	assert.ErrorContains(t, err, "exceeds maximum size")

	_, err = FindZipMember(writeFile(t, "bad.zip", []byte("nope")), hasSuffix("METADATA"), MaxMemberSize)
	assert.ErrorContains(t, err, "opening zip archive")
}

func TestCleanPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a/b/../PKG-INFO", "a/PKG-INFO", false},
		{"./a/PKG-INFO", "a/PKG-INFO", false},
		{"a\\PKG-INFO", "a/PKG-INFO", false},
		{"../escape", "", true},
		{"/etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := cleanPath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
