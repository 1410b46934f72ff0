// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/stacklok/pdmkit/config"
	"github.com/stacklok/pdmkit/credentials"
	"github.com/stacklok/pdmkit/oidc"
	"github.com/stacklok/pdmkit/pdmerr"
)

// TokenUsername is the username paired with API tokens.
const TokenUsername = "__token__"

// Source records where a credential came from.
type Source string

// Credential sources.
const (
	SourceConfig  Source = "config"
	SourceKeyring Source = "keyring"
	SourceOIDC    Source = "oidc"
	SourcePrompt  Source = "prompt"
)

// DefaultTrustedPublishingHosts are the index hosts OIDC is attempted
// against when a repository does not set trusted_publishing.
var DefaultTrustedPublishingHosts = []string{"upload.pypi.org", "test.pypi.org"}

// Credentials authenticate uploads to one repository.
type Credentials struct {
	Username string
	Secret   string
	Source   Source
	// Persist is set when prompted credentials should be saved to the
	// credential store once an upload succeeded.
	Persist bool
}

// String implements fmt.Stringer without exposing the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("%s (from %s)", c.Username, c.Source)
}

// TokenMinter exchanges a CI identity for an upload token.
type TokenMinter interface {
	Mint(ctx context.Context, baseURL string) (string, error)
}

// Prompter asks the operator for missing credentials.
type Prompter interface {
	Interactive() bool
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
	Confirm(label string, def bool) (bool, error)
}

// Resolver decides which credentials an upload uses.
type Resolver struct {
	store        credentials.Store
	minter       TokenMinter
	prompter     Prompter
	trustedHosts map[string]bool
	logger       *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStore sets the credential store. The default stores nothing.
func WithStore(store credentials.Store) ResolverOption {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithMinter sets the trusted publishing token minter.
func WithMinter(minter TokenMinter) ResolverOption {
	return func(r *Resolver) {
		r.minter = minter
	}
}

// WithPrompter enables interactive prompting when nothing else resolves.
func WithPrompter(prompter Prompter) ResolverOption {
	return func(r *Resolver) {
		r.prompter = prompter
	}
}

// WithTrustedPublishingHosts adds hosts to the trusted publishing allow-list.
func WithTrustedPublishingHosts(hosts ...string) ResolverOption {
	return func(r *Resolver) {
		for _, h := range hosts {
			r.trustedHosts[strings.ToLower(h)] = true
		}
	}
}

// WithResolverLogger sets the logger. The default is slog.Default().
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:        credentials.Nop{},
		trustedHosts: map[string]bool{},
		logger:       slog.Default(),
	}
	for _, h := range DefaultTrustedPublishingHosts {
		r.trustedHosts[h] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.minter == nil {
		r.minter = oidc.NewMinter(oidc.WithLogger(r.logger))
	}
	return r
}

// Resolve returns the credentials for cfg. Configured values win, then the
// credential store, then trusted publishing, then an interactive prompt.
func (r *Resolver) Resolve(ctx context.Context, cfg config.RepositoryConfig) (Credentials, error) {
	username, password := cfg.Username, cfg.Password

	if password != "" {
		if username == "" {
			username = TokenUsername
		}
		return Credentials{Username: username, Secret: password, Source: SourceConfig}, nil
	}

	if cred, ok := r.lookup(ctx, cfg.URL, username); ok {
		if cred.Username == "" {
			cred.Username = TokenUsername
		}
		return Credentials{Username: cred.Username, Secret: cred.Password, Source: SourceKeyring}, nil
	}

	var oidcErr error
	if r.trustedPublishing(cfg) {
		creds, err := r.mint(ctx, cfg.URL)
		if err == nil {
			return creds, nil
		}
		// Outside CI the operator may still be prompted. Anything else
		// means CI is set up for trusted publishing and got it wrong.
		if !errors.Is(err, oidc.ErrUnsupportedPlatform) {
			return Credentials{}, err
		}
		oidcErr = err
	}

	if r.prompter != nil && r.prompter.Interactive() {
		return r.prompt(username)
	}

	if oidcErr != nil {
		return Credentials{}, pdmerr.WrapUsage(oidcErr, "no credentials configured for %s", cfg.URL)
	}
	return Credentials{}, pdmerr.Usage(
		"no credentials configured for %s: set --username/--password or PDM_PUBLISH_USERNAME/PDM_PUBLISH_PASSWORD",
		cfg.URL)
}

// Save stores prompted credentials for the repository.
func (r *Resolver) Save(ctx context.Context, cfg config.RepositoryConfig, creds Credentials) error {
	if err := r.store.Save(ctx, cfg.URL, creds.Username, creds.Secret); err != nil {
		return err
	}
	r.logger.Info("saved credentials", "url", cfg.URL, "username", creds.Username)
	return nil
}

func (r *Resolver) lookup(ctx context.Context, repoURL, username string) (credentials.Credential, bool) {
	cred, ok, err := r.store.Lookup(ctx, repoURL)
	if err != nil {
		// Store failures must not block publishing with other credentials.
		r.logger.Warn("credential store lookup failed", "url", repoURL, "error", err)
		return credentials.Credential{}, false
	}
	if !ok {
		return credentials.Credential{}, false
	}
	if username != "" && cred.Username != username {
		r.logger.Debug("ignoring stored credential for a different user",
			"url", repoURL, "username", username, "stored_username", cred.Username)
		return credentials.Credential{}, false
	}
	return cred, true
}

// trustedPublishing reports whether OIDC should be attempted for cfg. The
// configured username does not matter: a minted token always pairs with
// TokenUsername.
func (r *Resolver) trustedPublishing(cfg config.RepositoryConfig) bool {
	if cfg.TrustedPublishing != nil {
		return *cfg.TrustedPublishing
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return false
	}
	return r.trustedHosts[strings.ToLower(u.Hostname())]
}

func (r *Resolver) mint(ctx context.Context, repoURL string) (Credentials, error) {
	base, err := oidc.BaseURL(repoURL)
	if err != nil {
		return Credentials{}, pdmerr.WrapUsage(err, "Failed to get PyPI token via OIDC")
	}
	token, err := r.minter.Mint(ctx, base)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: TokenUsername, Secret: token, Source: SourceOIDC}, nil
}

func (r *Resolver) prompt(username string) (Credentials, error) {
	var err error
	if username == "" {
		username, err = r.prompter.Prompt("Username")
		if err != nil {
			return Credentials{}, fmt.Errorf("reading username: %w", err)
		}
	}
	password, err := r.prompter.PromptSecret("Password")
	if err != nil {
		return Credentials{}, fmt.Errorf("reading password: %w", err)
	}
	if username == "" || password == "" {
		return Credentials{}, pdmerr.Usage("username and password are required")
	}

	persist, err := r.prompter.Confirm("Save credentials", false)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading answer: %w", err)
	}
	return Credentials{Username: username, Secret: password, Source: SourcePrompt, Persist: persist}, nil
}
