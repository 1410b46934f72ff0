// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"time"
)

// gzipOSUnknown is the OS value for "unknown" in gzip headers (RFC 1952).
const gzipOSUnknown = 255

// GzipOptions configures reproducible gzip compression.
type GzipOptions struct {
	// Level is the compression level (defaults to gzip.BestCompression).
	Level int

	// Epoch is the modification time to use in the gzip header.
	// If zero, uses Unix epoch (1970-01-01) for reproducibility.
	Epoch time.Time
}

// Compress creates a reproducible gzip compressed byte slice.
func Compress(data []byte, opts GzipOptions) ([]byte, error) {
	if opts.Level == 0 {
		opts.Level = gzip.BestCompression
	}

	epoch := opts.Epoch
	if epoch.IsZero() {
		epoch = time.Unix(0, 0).UTC()
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, opts.Level)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}

	gw.ModTime = epoch
	gw.Name = ""
	gw.Comment = ""
	gw.OS = gzipOSUnknown

	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("writing gzip data: %w", err)
	}

	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// CompressTar creates a reproducible .tar.gz from the given files.
func CompressTar(files []FileEntry, tarOpts TarOptions, gzipOpts GzipOptions) ([]byte, error) {
	tarData, err := CreateTar(files, tarOpts)
	if err != nil {
		return nil, fmt.Errorf("creating tar: %w", err)
	}

	gzipData, err := Compress(tarData, gzipOpts)
	if err != nil {
		return nil, fmt.Errorf("compressing tar: %w", err)
	}

	return gzipData, nil
}

// FindTarGzMember opens a .tar.gz file and returns the first member accepted by match.
func FindTarGzMember(filename string, match Matcher, maxSize int64) (FileEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return FileEntry{}, err
	}
	defer func() { _ = f.Close() }()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return FileEntry{}, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	return FindTarMember(gr, match, maxSize)
}
