// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"bytes"
	"crypto/md5" // #nosec G501 -- md5_digest is part of the upload protocol, not used for security
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/mail"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"golang.org/x/crypto/blake2b"

	"github.com/stacklok/pdmkit/archive"
	"github.com/stacklok/pdmkit/signing"
)

// File types reported to the index.
const (
	FileTypeWheel = "bdist_wheel"
	FileTypeSdist = "sdist"
)

// ErrUnsupportedFile is returned for files that are not a package distribution.
var ErrUnsupportedFile = errors.New("unsupported distribution file")

// Field is a single form field of an upload request. Multi-valued metadata
// produces one Field per value.
type Field struct {
	Name  string
	Value string
}

// Signature is a detached signature attached to a package.
type Signature struct {
	Name    string
	Content []byte
}

// Package is a distribution file ready to be uploaded.
type Package struct {
	Path     string
	FileType string
	// PyVersion is the python tag of a wheel or "source".
	PyVersion string
	Comment   string

	header      mail.Header
	description string

	MD5       string
	SHA256    string
	Blake2256 string

	Signature *Signature
}

// OpenPackage reads the metadata and digests of a wheel or sdist. A
// "<file>.asc" signature next to it is attached automatically.
func OpenPackage(filename string) (*Package, error) {
	base := filepath.Base(filename)

	var (
		entry archive.FileEntry
		err   error
		pkg   = &Package{Path: filename}
	)
	switch {
	case strings.HasSuffix(base, ".whl"):
		pkg.FileType = FileTypeWheel
		pkg.PyVersion = wheelPyVersion(base)
		entry, err = archive.FindZipMember(filename, isWheelMetadata, archive.MaxMemberSize)
	case strings.HasSuffix(base, ".tar.gz"):
		pkg.FileType = FileTypeSdist
		pkg.PyVersion = "source"
		entry, err = archive.FindTarGzMember(filename, isSdistMetadata, archive.MaxMemberSize)
	case strings.HasSuffix(base, ".zip"):
		pkg.FileType = FileTypeSdist
		pkg.PyVersion = "source"
		entry, err = archive.FindZipMember(filename, isSdistMetadata, archive.MaxMemberSize)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, base)
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata of %s: %w", base, err)
	}

	if err := pkg.parseMetadata(entry.Content); err != nil {
		return nil, fmt.Errorf("parsing metadata of %s: %w", base, err)
	}
	if pkg.Name() == "" || pkg.Version() == "" {
		return nil, fmt.Errorf("metadata of %s lacks Name or Version", base)
	}

	if err := pkg.computeDigests(); err != nil {
		return nil, err
	}

	sigPath := signing.SignaturePath(filename)
	if _, err := os.Stat(sigPath); err == nil {
		if err := pkg.AddSignature(sigPath); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

// isWheelMetadata matches {name}-{version}.dist-info/METADATA at the wheel root.
func isWheelMetadata(name string) bool {
	dir, file := path.Split(name)
	return file == "METADATA" && strings.Count(dir, "/") == 1 && strings.HasSuffix(dir, ".dist-info/")
}

// isSdistMetadata matches {name}-{version}/PKG-INFO at the top level.
func isSdistMetadata(name string) bool {
	dir, file := path.Split(name)
	return file == "PKG-INFO" && strings.Count(dir, "/") == 1
}

// wheelPyVersion extracts the python tag from a wheel file name:
// {name}-{version}(-{build})?-{python}-{abi}-{platform}.whl
func wheelPyVersion(base string) string {
	parts := strings.Split(strings.TrimSuffix(base, ".whl"), "-")
	if len(parts) < 5 {
		return ""
	}
	return parts[len(parts)-3]
}

func (p *Package) parseMetadata(data []byte) error {
	// Core metadata is an RFC 822 style message; the body, if any, is the
	// long description.
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return err
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return err
	}

	p.header = msg.Header
	p.description = string(body)
	if strings.TrimSpace(p.description) == "" {
		p.description = msg.Header.Get("Description")
	}
	return nil
}

func (p *Package) computeDigests() error {
	f, err := os.Open(p.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", p.Path, err)
	}
	defer f.Close()

	md5h := md5.New() // #nosec G401 -- see import
	sha := digest.SHA256.Digester()
	blake, err := blake2b.New256(nil)
	if err != nil {
		return fmt.Errorf("creating blake2b hash: %w", err)
	}

	if _, err := io.Copy(io.MultiWriter(md5h, sha.Hash(), blake), f); err != nil {
		return fmt.Errorf("hashing %s: %w", p.Path, err)
	}

	p.MD5 = hexSum(md5h)
	p.SHA256 = sha.Digest().Encoded()
	p.Blake2256 = hexSum(blake)
	return nil
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// BaseName returns the file name of the package.
func (p *Package) BaseName() string {
	return filepath.Base(p.Path)
}

// Name returns the project name from the metadata.
func (p *Package) Name() string {
	return p.header.Get("Name")
}

// Version returns the project version from the metadata.
func (p *Package) Version() string {
	return p.header.Get("Version")
}

// Summary returns the one-line summary from the metadata.
func (p *Package) Summary() string {
	return p.header.Get("Summary")
}

// Description returns the long description.
func (p *Package) Description() string {
	return p.description
}

// Metadata returns a single metadata header value.
func (p *Package) Metadata(key string) string {
	return p.header.Get(key)
}

// IsWheel reports whether the package is a built distribution.
func (p *Package) IsWheel() bool {
	return p.FileType == FileTypeWheel
}

// AddSignature attaches the detached signature stored at sigPath.
func (p *Package) AddSignature(sigPath string) error {
	content, err := os.ReadFile(sigPath) // #nosec G304 -- signature lives next to the package
	if err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}
	p.Signature = &Signature{Name: filepath.Base(sigPath), Content: content}
	return nil
}

// metadataField maps an upload form field to a core metadata header.
type metadataField struct {
	form   string
	header string
	multi  bool
}

var metadataFields = []metadataField{
	{form: "metadata_version", header: "Metadata-Version"},
	{form: "summary", header: "Summary"},
	{form: "home_page", header: "Home-page"},
	{form: "author", header: "Author"},
	{form: "author_email", header: "Author-email"},
	{form: "maintainer", header: "Maintainer"},
	{form: "maintainer_email", header: "Maintainer-email"},
	{form: "license", header: "License"},
	{form: "license_expression", header: "License-Expression"},
	{form: "description_content_type", header: "Description-Content-Type"},
	{form: "keywords", header: "Keywords"},
	{form: "platform", header: "Platform", multi: true},
	{form: "classifiers", header: "Classifier", multi: true},
	{form: "download_url", header: "Download-URL"},
	{form: "supported_platform", header: "Supported-Platform", multi: true},
	{form: "requires_python", header: "Requires-Python"},
	{form: "requires_dist", header: "Requires-Dist", multi: true},
	{form: "provides_dist", header: "Provides-Dist", multi: true},
	{form: "obsoletes_dist", header: "Obsoletes-Dist", multi: true},
	{form: "requires_external", header: "Requires-External", multi: true},
	{form: "project_urls", header: "Project-URL", multi: true},
	{form: "provides_extras", header: "Provides-Extra", multi: true},
	{form: "license_file", header: "License-File", multi: true},
	{form: "dynamic", header: "Dynamic", multi: true},
}

// MetadataFields returns the form fields describing the package, in a
// stable order. Empty values are omitted.
func (p *Package) MetadataFields() []Field {
	fields := []Field{
		{"name", p.Name()},
		{"version", p.Version()},
		{"filetype", p.FileType},
		{"pyversion", p.PyVersion},
	}

	for _, mf := range metadataFields {
		if mf.multi {
			for _, v := range p.header[textproto.CanonicalMIMEHeaderKey(mf.header)] {
				fields = append(fields, Field{mf.form, strings.TrimSpace(v)})
			}
			continue
		}
		fields = append(fields, Field{mf.form, p.header.Get(mf.header)})
	}

	fields = append(fields,
		Field{"description", p.description},
		Field{"comment", p.Comment},
		Field{"md5_digest", p.MD5},
		Field{"sha256_digest", p.SHA256},
		Field{"blake2_256_digest", p.Blake2256},
	)

	kept := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			kept = append(kept, f)
		}
	}
	return kept
}
