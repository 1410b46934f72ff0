// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/pdmerr"
	httpval "github.com/stacklok/pdmkit/validation/http"
)

// Environment variables consulted by Merge.
const (
	EnvUsername = "PDM_PUBLISH_USERNAME"
	EnvPassword = "PDM_PUBLISH_PASSWORD"
	EnvRepo     = "PDM_PUBLISH_REPO"
	EnvCACerts  = "PDM_PUBLISH_CA_CERTS"
)

// Well-known repository names and upload endpoints.
const (
	DefaultRepository = "pypi"
	PyPIUploadURL     = "https://upload.pypi.org/legacy/"
	TestPyPIUploadURL = "https://test.pypi.org/legacy/"
)

// RepositoryConfig identifies one upload target. It is built once per
// publish invocation by Merge and treated as immutable afterwards.
type RepositoryConfig struct {
	// Name is the configured repository name, or the URL itself when the
	// repository was given as a URL.
	Name string
	// URL is the upload endpoint and the credential store key.
	URL      string
	Username string
	// Password holds either a password or an API token.
	Password string
	// CACerts is an optional path to a PEM certificate bundle.
	CACerts string
	// VerifySSL is nil when TLS verification was not configured.
	VerifySSL *bool
	// TrustedPublishing forces (true) or disables (false) the OIDC exchange;
	// nil leaves the decision to the index allow-list.
	TrustedPublishing *bool
}

// VerifyTLS reports whether server certificates must be verified.
func (c RepositoryConfig) VerifyTLS() bool {
	return c.VerifySSL == nil || *c.VerifySSL
}

// RepositorySettings is the stored form of one repository entry.
type RepositorySettings struct {
	URL               string `yaml:"url,omitempty" json:"url,omitempty"`
	Username          string `yaml:"username,omitempty" json:"username,omitempty"`
	Password          string `yaml:"password,omitempty" json:"password,omitempty"`
	CACerts           string `yaml:"ca_certs,omitempty" json:"ca_certs,omitempty"`
	VerifySSL         *bool  `yaml:"verify_ssl,omitempty" json:"verify_ssl,omitempty"`
	TrustedPublishing *bool  `yaml:"trusted_publishing,omitempty" json:"trusted_publishing,omitempty"`
}

// overlay returns s with every field set in o taking precedence.
func (s RepositorySettings) overlay(o RepositorySettings) RepositorySettings {
	if o.URL != "" {
		s.URL = o.URL
	}
	if o.Username != "" {
		s.Username = o.Username
	}
	if o.Password != "" {
		s.Password = o.Password
	}
	if o.CACerts != "" {
		s.CACerts = o.CACerts
	}
	if o.VerifySSL != nil {
		s.VerifySSL = o.VerifySSL
	}
	if o.TrustedPublishing != nil {
		s.TrustedPublishing = o.TrustedPublishing
	}
	return s
}

// Defaults returns the built-in repository table.
func Defaults() map[string]RepositorySettings {
	return map[string]RepositorySettings{
		"pypi":     {URL: PyPIUploadURL},
		"testpypi": {URL: TestPyPIUploadURL},
	}
}

// Flags carries the command line values that take part in the merge.
// Empty strings and nil pointers mean "not given".
type Flags struct {
	Repository string
	Username   string
	Password   string
	CACerts    string
	VerifySSL  *bool
}

// Merge builds the RepositoryConfig for one invocation from, in ascending
// precedence, the built-in defaults, the stored configuration file, the
// environment and the command line flags. Each field is resolved
// independently. stored may be nil.
func Merge(defaults map[string]RepositorySettings, stored *File, environ env.Reader, flags Flags) (RepositoryConfig, error) {
	name := first(flags.Repository, environ.Getenv(EnvRepo), DefaultRepository)

	var settings RepositorySettings
	if isURL(name) {
		settings.URL = name
	} else {
		settings = defaults[name]
		if stored != nil {
			settings = settings.overlay(stored.Repositories[name])
		}
		if settings.URL == "" {
			return RepositoryConfig{}, pdmerr.Usage("repository %q is not configured", name)
		}
	}

	if err := httpval.ValidateRepositoryURL(settings.URL); err != nil {
		return RepositoryConfig{}, pdmerr.WrapUsage(err, "repository %q", name)
	}

	cfg := RepositoryConfig{
		Name:              name,
		URL:               settings.URL,
		Username:          first(flags.Username, environ.Getenv(EnvUsername), settings.Username),
		Password:          first(flags.Password, environ.Getenv(EnvPassword), settings.Password),
		CACerts:           first(flags.CACerts, environ.Getenv(EnvCACerts), settings.CACerts),
		VerifySSL:         cloneBool(settings.VerifySSL),
		TrustedPublishing: cloneBool(settings.TrustedPublishing),
	}
	if flags.VerifySSL != nil {
		cfg.VerifySSL = cloneBool(flags.VerifySSL)
	}

	return cfg, nil
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// String describes the config without secrets.
func (c RepositoryConfig) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.URL)
}
