// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/stacklok/pdmkit/config"
	"github.com/stacklok/pdmkit/httperr"
)

// UserAgent is sent with every request.
var UserAgent = "pdm-publish"

// Release page prefixes of the public indexes, keyed by upload URL prefix.
var releaseBases = []struct {
	uploadPrefix string
	releaseBase  string
}{
	{strings.TrimSuffix(config.PyPIUploadURL, "/"), "https://pypi.org/"},
	{strings.TrimSuffix(config.TestPyPIUploadURL, "/"), "https://test.pypi.org/"},
}

// NewHTTPClient returns the pooled client used for every request of one
// publish run, with TLS set up from the repository's CA bundle and
// verification setting. Redirects are not followed: an upload endpoint that
// redirects is misconfigured and the POST body would be lost.
func NewHTTPClient(cfg config.RepositoryConfig) (*http.Client, error) {
	client := cleanhttp.DefaultPooledClient()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	skipVerify := !cfg.VerifyTLS()
	if !skipVerify && cfg.CACerts == "" {
		return client, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	client.Transport.(*http.Transport).TLSClientConfig = tlsConfig

	if skipVerify {
		tlsConfig.InsecureSkipVerify = true // #nosec G402 -- explicitly requested with --no-verify-ssl
	}
	if cfg.CACerts != "" {
		pem, err := os.ReadFile(cfg.CACerts)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificates: %w", err)
		}
		tlsConfig.RootCAs = x509.NewCertPool()
		if !tlsConfig.RootCAs.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACerts)
		}
	}
	return client, nil
}

// Repository uploads packages to one index.
type Repository struct {
	cfg    config.RepositoryConfig
	creds  Credentials
	client *http.Client
	logger *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithHTTPClient sets the client. The default is built by NewHTTPClient.
func WithHTTPClient(client *http.Client) RepositoryOption {
	return func(r *Repository) {
		r.client = client
	}
}

// WithRepositoryLogger sets the logger. The default is slog.Default().
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a client for cfg authenticating with creds.
func NewRepository(cfg config.RepositoryConfig, creds Credentials, opts ...RepositoryOption) (*Repository, error) {
	r := &Repository{cfg: cfg, creds: creds, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		client, err := NewHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		r.client = client
	}
	return r, nil
}

// URL returns the upload endpoint.
func (r *Repository) URL() string {
	return r.cfg.URL
}

// Upload sends one package. Non-2xx responses, redirects included, are
// returned as *httperr.CodedError.
func (r *Repository) Upload(ctx context.Context, pkg *Package) error {
	body, contentType, err := buildUploadBody(pkg)
	if err != nil {
		return fmt.Errorf("preparing upload of %s: %w", pkg.BaseName(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", UserAgent)
	req.SetBasicAuth(r.creds.Username, r.creds.Secret)

	r.logger.Debug("uploading package", "file", pkg.BaseName(), "url", r.cfg.URL,
		"size", len(body), "username", r.creds.Username)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", pkg.BaseName(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		return fmt.Errorf("uploading %s: %w", pkg.BaseName(), httperr.WithCode(
			fmt.Errorf("redirected to %q, check the repository URL", location), resp.StatusCode))
	}
	if err := httperr.FromResponse(resp); err != nil {
		return fmt.Errorf("uploading %s: %w", pkg.BaseName(), err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func buildUploadBody(pkg *Package) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := append([]Field{
		{":action", "file_upload"},
		{"protocol_version", "1"},
	}, pkg.MetadataFields()...)
	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}

	if pkg.Signature != nil {
		part, err := w.CreateFormFile("gpg_signature", pkg.Signature.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(pkg.Signature.Content); err != nil {
			return nil, "", err
		}
	}

	f, err := os.Open(pkg.Path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	part, err := w.CreateFormFile("content", pkg.BaseName())
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ReleaseURLs returns the project release pages of pkgs on the public
// index, sorted and de-duplicated. Other indexes have no known release
// page and yield nil.
func (r *Repository) ReleaseURLs(pkgs []*Package) []string {
	var base string
	for _, rb := range releaseBases {
		if strings.HasPrefix(r.cfg.URL, rb.uploadPrefix) {
			base = rb.releaseBase
			break
		}
	}
	if base == "" {
		return nil
	}

	seen := map[string]bool{}
	var urls []string
	for _, p := range pkgs {
		u := fmt.Sprintf("%sproject/%s/%s/", base, p.Name(), p.Version())
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	sort.Strings(urls)
	return urls
}

// SortForUpload orders wheels before source distributions so the index
// never holds a version with only an sdist, keeping the relative order
// otherwise.
func SortForUpload(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].IsWheel() && !pkgs[j].IsWheel()
	})
}

// IsAlreadyExists reports whether an upload error means the file is
// already on the index.
func IsAlreadyExists(err error) bool {
	var coded *httperr.CodedError
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.HTTPCode() {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest, http.StatusForbidden:
		detail := strings.ToLower(coded.Error() + " " + coded.Body())
		return strings.Contains(detail, "already exist") ||
			strings.Contains(detail, "updating asset") ||
			strings.Contains(detail, "overwrite")
	default:
		return false
	}
}
