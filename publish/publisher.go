// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/pdmerr"
	"github.com/stacklok/pdmkit/signing"
	"github.com/stacklok/pdmkit/termui"
)

// distPatterns select the distribution files in the dist directory.
var distPatterns = []string{"*.whl", "*.tar.gz", "*.zip"}

// Uploader sends one package to an index.
type Uploader interface {
	Upload(ctx context.Context, pkg *Package) error
	ReleaseURLs(pkgs []*Package) []string
}

// Options controls one publish run.
type Options struct {
	// DistDir holds the files to upload.
	DistDir string
	// Build runs BuildCommand before collecting files.
	Build bool
	// BuildCommand defaults to "pdm build --dest <DistDir>".
	BuildCommand []string
	// SkipExisting tolerates files already present on the index.
	SkipExisting bool
	// Comment is sent with every file.
	Comment string
}

// Publisher builds, signs and uploads the distribution files of a project.
type Publisher struct {
	uploader Uploader
	runner   execx.Runner
	signer   signing.Signer
	ui       *termui.UI
	// afterFirstUpload runs once, after the first successful upload.
	afterFirstUpload func(ctx context.Context) error
	logger           *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithRunner sets the runner for the build step.
func WithRunner(runner execx.Runner) PublisherOption {
	return func(p *Publisher) {
		p.runner = runner
	}
}

// WithSigner signs every file before upload. Without a signer existing
// ".asc" files are uploaded.
func WithSigner(signer signing.Signer) PublisherOption {
	return func(p *Publisher) {
		p.signer = signer
	}
}

// WithUI sets where progress is reported.
func WithUI(ui *termui.UI) PublisherOption {
	return func(p *Publisher) {
		p.ui = ui
	}
}

// WithAfterFirstUpload registers fn to run after the first successful
// upload. Failures are reported as warnings.
func WithAfterFirstUpload(fn func(ctx context.Context) error) PublisherOption {
	return func(p *Publisher) {
		p.afterFirstUpload = fn
	}
}

// WithPublisherLogger sets the logger. The default is slog.Default().
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a Publisher uploading through uploader.
func NewPublisher(uploader Uploader, opts ...PublisherOption) *Publisher {
	p := &Publisher{uploader: uploader, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = &execx.Exec{}
	}
	if p.ui == nil {
		p.ui = termui.NewPlain(io.Discard)
	}
	return p
}

// Result summarizes a publish run.
type Result struct {
	Uploaded    []*Package
	Skipped     []*Package
	ReleaseURLs []string
}

// Publish runs the publish workflow. Files are uploaded one at a time;
// the first failure stops the run and earlier uploads stay published.
func (p *Publisher) Publish(ctx context.Context, opts Options) (Result, error) {
	if opts.DistDir == "" {
		opts.DistDir = "dist"
	}

	if opts.Build {
		if err := p.build(ctx, opts); err != nil {
			return Result{}, err
		}
	}

	pkgs, err := CollectPackages(opts.DistDir)
	if err != nil {
		return Result{}, err
	}

	for _, pkg := range pkgs {
		pkg.Comment = opts.Comment
		if p.signer == nil {
			continue
		}
		p.ui.Println("Signing %s", p.ui.Cyan(pkg.BaseName()))
		sigPath, err := p.signer.Sign(ctx, pkg.Path)
		if err != nil {
			return Result{}, err
		}
		if err := pkg.AddSignature(sigPath); err != nil {
			return Result{}, err
		}
	}

	SortForUpload(pkgs)

	var res Result
	for _, pkg := range pkgs {
		p.ui.Println("Uploading %s", p.ui.Cyan(pkg.BaseName()))

		err := p.uploader.Upload(ctx, pkg)
		switch {
		case err == nil:
			res.Uploaded = append(res.Uploaded, pkg)
			if len(res.Uploaded) == 1 {
				p.runAfterFirstUpload(ctx)
			}
		case opts.SkipExisting && IsAlreadyExists(err):
			p.ui.Warn("%s already exists, skipping", pkg.BaseName())
			res.Skipped = append(res.Skipped, pkg)
		default:
			p.logger.Error("upload failed", "file", pkg.BaseName(), "error", err)
			return res, err
		}
	}

	// Skipped files are already on the index, so they have release pages too.
	published := append(append([]*Package(nil), res.Uploaded...), res.Skipped...)
	res.ReleaseURLs = p.uploader.ReleaseURLs(published)
	if len(res.ReleaseURLs) > 0 {
		rows := make([][]string, 0, len(res.ReleaseURLs))
		for _, u := range res.ReleaseURLs {
			rows = append(rows, []string{u})
		}
		p.ui.Println("")
		p.ui.Table([]string{"View at"}, rows)
	}
	return res, nil
}

func (p *Publisher) build(ctx context.Context, opts Options) error {
	cmd := opts.BuildCommand
	if len(cmd) == 0 {
		cmd = []string{"pdm", "build", "--dest", opts.DistDir}
	}
	p.ui.Println("Building with %s", p.ui.Bold(strings.Join(cmd, " ")))
	if err := p.runner.Run(ctx, cmd[0], cmd[1:]...); err != nil {
		return fmt.Errorf("building distributions: %w", err)
	}
	return nil
}

func (p *Publisher) runAfterFirstUpload(ctx context.Context) {
	if p.afterFirstUpload == nil {
		return
	}
	if err := p.afterFirstUpload(ctx); err != nil {
		p.ui.Warn("%v", err)
		p.logger.Warn("post-upload hook failed", "error", err)
	}
}

// CollectPackages opens every distribution file in dir, sorted by name.
func CollectPackages(dir string) ([]*Package, error) {
	var files []string
	for _, pattern := range distPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, pdmerr.Usage("no distribution files found in %s, build the project or drop --no-build", dir)
	}
	sort.Strings(files)

	pkgs := make([]*Package, 0, len(files))
	var errs []error
	for _, f := range files {
		pkg, err := OpenPackage(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pkgs, nil
}
