// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

// CreateZip creates a zip archive with deterministic ordering and timestamps.
func CreateZip(files []FileEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range sortedEntries(files) {
		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("writing zip header for %s: %w", f.Path, err)
		}
		if _, err := w.Write(f.Content); err != nil {
			return nil, fmt.Errorf("writing zip content for %s: %w", f.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// FindZipMember opens a zip file and returns the first file accepted by match.
// Members are visited in central-directory order.
func FindZipMember(filename string, match Matcher, maxSize int64) (FileEntry, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return FileEntry{}, fmt.Errorf("opening zip archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name, err := cleanPath(zf.Name)
		if err != nil || !match(name) {
			continue
		}
		if zf.UncompressedSize64 > uint64(maxSize) {
			return FileEntry{}, fmt.Errorf("file %s exceeds maximum size of %d bytes", zf.Name, maxSize)
		}

		rc, err := zf.Open()
		if err != nil {
			return FileEntry{}, fmt.Errorf("opening %s: %w", zf.Name, err)
		}
		content, err := readLimited(rc, maxSize)
		_ = rc.Close()
		if err != nil {
			return FileEntry{}, fmt.Errorf("reading zip content for %s: %w", zf.Name, err)
		}
		return FileEntry{Path: name, Content: content}, nil
	}

	return FileEntry{}, ErrMemberNotFound
}
