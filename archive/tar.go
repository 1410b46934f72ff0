// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// MaxMemberSize is the maximum size of a single archive member that is read
// into memory (16MB). Metadata files are a few kilobytes; anything larger
// is treated as a decompression bomb.
const MaxMemberSize = 16 * 1024 * 1024

// ErrMemberNotFound is returned when no archive member matches.
var ErrMemberNotFound = errors.New("member not found in archive")

// TarOptions configures reproducible tar archive creation.
type TarOptions struct {
	// Epoch is the timestamp to use for all files (defaults to Unix epoch).
	Epoch time.Time
}

// FileEntry represents a file inside an archive.
type FileEntry struct {
	Path    string // Path within the archive
	Content []byte // File content
	Mode    int64  // File mode (defaults to 0644)
}

// Matcher selects an archive member by its cleaned path.
type Matcher func(name string) bool

// CreateTar creates a reproducible tar archive from the given files.
// Files are sorted alphabetically and normalized headers are used.
func CreateTar(files []FileEntry, opts TarOptions) ([]byte, error) {
	if opts.Epoch.IsZero() {
		opts.Epoch = time.Unix(0, 0).UTC()
	}

	sorted := sortedEntries(files)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, f := range sorted {
		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}

		hdr := &tar.Header{
			Name:     f.Path,
			Size:     int64(len(f.Content)),
			Mode:     mode,
			ModTime:  opts.Epoch,
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("writing tar header for %s: %w", f.Path, err)
		}

		if _, err := tw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("writing tar content for %s: %w", f.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar writer: %w", err)
	}

	return buf.Bytes(), nil
}

// FindTarMember streams a tar archive and returns the first regular file
// accepted by match. Links, devices and unsafe paths are skipped rather than
// rejected since only one member is of interest.
func FindTarMember(r io.Reader, match Matcher, maxSize int64) (FileEntry, error) {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return FileEntry{}, ErrMemberNotFound
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			continue
		}
		if err != nil {
			return FileEntry{}, fmt.Errorf("reading tar header: %w", err)
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name, err := cleanPath(hdr.Name)
		if err != nil {
			continue
		}
		if !match(name) {
			continue
		}

		if hdr.Size > maxSize {
			return FileEntry{}, fmt.Errorf("file %s exceeds maximum size of %d bytes", hdr.Name, maxSize)
		}

		content, err := readLimited(tr, maxSize)
		if err != nil {
			return FileEntry{}, fmt.Errorf("reading tar content for %s: %w", hdr.Name, err)
		}

		return FileEntry{Path: name, Content: content, Mode: hdr.Mode}, nil
	}
}

// cleanPath checks that an archive entry path is safe and returns it cleaned.
func cleanPath(p string) (string, error) {
	// path.Clean resolves all ".." segments; any remaining leading ".."
	// means the path escapes the archive root.
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("path traversal detected in archive: %s", p)
	}
	if path.IsAbs(cleaned) {
		return "", fmt.Errorf("absolute path not allowed in archive: %s", p)
	}
	return cleaned, nil
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("content exceeds maximum size of %d bytes", maxSize)
	}
	return content, nil
}

func sortedEntries(files []FileEntry) []FileEntry {
	sorted := make([]FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})
	return sorted
}
