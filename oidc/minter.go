// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/httperr"
	"github.com/stacklok/pdmkit/pdmerr"
	httpval "github.com/stacklok/pdmkit/validation/http"
)

// Index endpoint paths, relative to the index base URL.
const (
	AudiencePath  = "/_/oidc/audience"
	MintTokenPath = "/_/oidc/mint-token"
)

// User-facing messages. Callers and tests match on these.
const (
	msgMintFailed          = "Failed to get PyPI token via OIDC"
	msgUnsupportedPlatform = "This platform is not supported for trusted publishing via OIDC"
	msgIdentityUnavailable = "Unable to detect OIDC token for CI platform: %s"
)

// Minter performs the trusted publishing token exchange.
type Minter struct {
	client    *http.Client
	environ   env.Reader
	runner    execx.Runner
	platforms []Platform
	logger    *slog.Logger

	// platformClient talks to CI token services. It never shares the
	// index client's TLS settings.
	platformClient *http.Client
}

// Option configures a Minter.
type Option func(*Minter)

// WithHTTPClient sets the client used for the index's OIDC endpoints.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Minter) {
		m.client = client
	}
}

// WithPlatformHTTPClient sets the client used for CI token services such as
// the GitHub Actions token endpoint. The default is a cleanhttp client with
// system trust roots.
func WithPlatformHTTPClient(client *http.Client) Option {
	return func(m *Minter) {
		m.platformClient = client
	}
}

// WithEnv sets the environment platforms are detected from.
func WithEnv(environ env.Reader) Option {
	return func(m *Minter) {
		m.environ = environ
	}
}

// WithRunner sets the runner used by CLI based platforms.
func WithRunner(runner execx.Runner) Option {
	return func(m *Minter) {
		m.runner = runner
	}
}

// WithPlatforms replaces the platforms tried during detection.
func WithPlatforms(platforms ...Platform) Option {
	return func(m *Minter) {
		m.platforms = platforms
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Minter) {
		m.logger = logger
	}
}

// NewMinter creates a Minter.
func NewMinter(opts ...Option) *Minter {
	m := &Minter{
		environ: &env.OSReader{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = cleanhttp.DefaultClient()
	}
	if m.platformClient == nil {
		m.platformClient = cleanhttp.DefaultClient()
	}
	if m.runner == nil {
		m.runner = &execx.Exec{}
	}
	if m.platforms == nil {
		m.platforms = DefaultPlatforms(m.platformClient, m.runner)
	}
	return m
}

// BaseURL returns scheme://host of an upload URL.
func BaseURL(uploadURL string) (string, error) {
	u, err := url.Parse(uploadURL)
	if err != nil {
		return "", fmt.Errorf("invalid upload URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid upload URL %q: scheme and host are required", uploadURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Detect returns the first platform that matches the environment.
func (m *Minter) Detect() (Platform, bool) {
	for _, p := range m.platforms {
		if p.Detect(m.environ) {
			return p, true
		}
	}
	return nil, false
}

// Mint exchanges the CI identity token for an index upload token.
// baseURL is scheme://host of the index.
func (m *Minter) Mint(ctx context.Context, baseURL string) (string, error) {
	token, err := m.mint(ctx, strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		m.logger.Error("trusted publishing failed", "index", baseURL, "error", err)
		return "", err
	}
	return token, nil
}

func (m *Minter) mint(ctx context.Context, baseURL string) (string, error) {
	platform, ok := m.Detect()
	if !ok {
		return "", pdmerr.WrapUsage(ErrUnsupportedPlatform, msgUnsupportedPlatform)
	}
	m.logger.Debug("detected CI platform", "platform", platform.Name())

	audience, err := m.audience(ctx, baseURL)
	if err != nil {
		return "", pdmerr.WrapUsage(err, msgMintFailed)
	}

	identity, err := platform.IdentityToken(ctx, m.environ, audience)
	if err != nil {
		return "", pdmerr.WrapUsage(err, msgIdentityUnavailable, platform.Name())
	}

	minted, err := m.exchange(ctx, baseURL, identity)
	if err != nil {
		return "", pdmerr.WrapUsage(err, msgMintFailed)
	}
	if err := httpval.ValidateToken(minted); err != nil {
		return "", pdmerr.WrapUsage(err, msgMintFailed)
	}

	m.logger.Info("minted upload token via trusted publishing", "platform", platform.Name(), "index", baseURL)
	return minted, nil
}

func (m *Minter) audience(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+AudiencePath, nil)
	if err != nil {
		return "", fmt.Errorf("creating audience request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var payload struct {
		Audience string `json:"audience"`
	}
	if err := getJSON(m.client, req, &payload); err != nil {
		return "", err
	}
	if payload.Audience == "" {
		return "", fmt.Errorf("%w: audience is empty", ErrInvalidResponse)
	}
	return payload.Audience, nil
}

// mintErrors is the body returned by the mint endpoint on rejection.
type mintErrors struct {
	Message string `json:"message"`
	Errors  []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (m *Minter) exchange(ctx context.Context, baseURL, identity string) (string, error) {
	body, err := json.Marshal(map[string]string{"token": identity})
	if err != nil {
		return "", fmt.Errorf("encoding mint request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+MintTokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if err := httperr.FromResponse(resp); err != nil {
		return "", m.describeRejection(ctx, err, identity)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding mint response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("%w: minted token is empty", ErrInvalidResponse)
	}
	return payload.Token, nil
}

// describeRejection adds the index's error descriptions and the identity
// token's claims to a mint failure.
func (m *Minter) describeRejection(ctx context.Context, err error, identity string) error {
	var details []string

	var coded *httperr.CodedError
	if errors.As(err, &coded) && coded.Body() != "" {
		var me mintErrors
		if json.Unmarshal([]byte(coded.Body()), &me) == nil {
			for _, e := range me.Errors {
				if e.Code != "" {
					details = append(details, e.Code+": "+e.Description)
				} else if e.Description != "" {
					details = append(details, e.Description)
				}
			}
			if len(details) == 0 && me.Message != "" {
				details = append(details, me.Message)
			}
		}
	}

	claims, cerr := DecodeClaims(ctx, identity)
	if cerr != nil {
		m.logger.Debug("could not decode identity token claims", "error", cerr)
	} else if len(claims) > 0 {
		details = append(details, "identity token claims: "+formatClaims(claims))
	}

	if len(details) == 0 {
		return err
	}
	return fmt.Errorf("%w\n  %s", err, strings.Join(details, "\n  "))
}

// signingAlgs lists the algorithms accepted when parsing identity tokens.
var signingAlgs = []string{
	gooidc.RS256, gooidc.RS384, gooidc.RS512,
	gooidc.ES256, gooidc.ES384, gooidc.ES512,
	gooidc.PS256, gooidc.PS384, gooidc.PS512,
	gooidc.EdDSA,
}

// DecodeClaims returns the claims of a JWT identity token. The signature,
// issuer, audience and expiry are not checked: the result is only used for
// diagnostics.
func DecodeClaims(ctx context.Context, rawToken string) (map[string]any, error) {
	verifier := gooidc.NewVerifier("", &gooidc.StaticKeySet{}, &gooidc.Config{
		SkipClientIDCheck:          true,
		SkipExpiryCheck:            true,
		SkipIssuerCheck:            true,
		InsecureSkipSignatureCheck: true,
		SupportedSigningAlgs:       signingAlgs,
	})

	token, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("parsing identity token: %w", err)
	}

	claims := map[string]any{}
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding identity token claims: %w", err)
	}
	return claims, nil
}

func formatClaims(claims map[string]any) string {
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, claims[k]))
	}
	return strings.Join(parts, ", ")
}
