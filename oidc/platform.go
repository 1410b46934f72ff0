// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/httperr"
)

// maxResponseSize bounds JSON responses read from CI and index endpoints.
const maxResponseSize = 1 << 20

// Platform is a CI system able to issue OIDC identity tokens.
type Platform interface {
	// Name identifies the platform in diagnostics.
	Name() string

	// Detect reports whether the process runs on this platform.
	Detect(environ env.Reader) bool

	// IdentityToken returns an identity token for audience. Errors wrap
	// ErrIdentityUnavailable when the platform is not set up to issue one.
	IdentityToken(ctx context.Context, environ env.Reader, audience string) (string, error)
}

// DefaultPlatforms returns the supported platforms in detection order.
func DefaultPlatforms(client *http.Client, runner execx.Runner) []Platform {
	return []Platform{
		&GitHub{Client: client},
		GitLab{},
		&Buildkite{Runner: runner},
		&CircleCI{Runner: runner},
	}
}

// GitHub issues tokens through the Actions runtime token service.
type GitHub struct {
	Client *http.Client
}

// Environment variables consulted on GitHub Actions.
const (
	EnvGitHubActions      = "GITHUB_ACTIONS"
	EnvGitHubRequestURL   = "ACTIONS_ID_TOKEN_REQUEST_URL"
	EnvGitHubRequestToken = "ACTIONS_ID_TOKEN_REQUEST_TOKEN"
)

// Name implements Platform.
func (*GitHub) Name() string { return "GitHub Actions" }

// Detect implements Platform.
func (*GitHub) Detect(environ env.Reader) bool {
	return environ.Getenv(EnvGitHubActions) != ""
}

// IdentityToken implements Platform.
func (g *GitHub) IdentityToken(ctx context.Context, environ env.Reader, audience string) (string, error) {
	requestURL := environ.Getenv(EnvGitHubRequestURL)
	requestToken := environ.Getenv(EnvGitHubRequestToken)
	if requestURL == "" || requestToken == "" {
		return "", fmt.Errorf("%w: %s and %s must be set, is the id-token: write permission granted?",
			ErrIdentityUnavailable, EnvGitHubRequestURL, EnvGitHubRequestToken)
	}

	u, err := url.Parse(requestURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid %s: %w", ErrIdentityUnavailable, EnvGitHubRequestURL, err)
	}
	q := u.Query()
	q.Set("audience", audience)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+requestToken)
	req.Header.Set("Accept", "application/json")

	client := g.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := getJSON(client, req, &payload); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if payload.Value == "" {
		return "", fmt.Errorf("%w: token response has no value", ErrIdentityUnavailable)
	}
	return payload.Value, nil
}

// GitLab exposes tokens configured with id_tokens as job variables named
// after the audience, for example PYPI_ID_TOKEN for audience "pypi".
type GitLab struct{}

// EnvGitLabCI marks a GitLab CI job.
const EnvGitLabCI = "GITLAB_CI"

// Name implements Platform.
func (GitLab) Name() string { return "GitLab CI/CD" }

// Detect implements Platform.
func (GitLab) Detect(environ env.Reader) bool {
	return environ.Getenv(EnvGitLabCI) != ""
}

// IdentityToken implements Platform.
func (GitLab) IdentityToken(_ context.Context, environ env.Reader, audience string) (string, error) {
	name := GitLabTokenVariable(audience)
	token := environ.Getenv(name)
	if token == "" {
		return "", fmt.Errorf("%w: %s is not set, declare it under id_tokens in .gitlab-ci.yml",
			ErrIdentityUnavailable, name)
	}
	return token, nil
}

// GitLabTokenVariable returns the job variable holding the identity token
// for audience: upper-cased, with every non-alphanumeric rune replaced by "_".
func GitLabTokenVariable(audience string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(audience) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_ID_TOKEN"
}

// Buildkite asks the local buildkite-agent for a token.
type Buildkite struct {
	Runner execx.Runner
}

// EnvBuildkite marks a Buildkite job.
const EnvBuildkite = "BUILDKITE"

// Name implements Platform.
func (*Buildkite) Name() string { return "Buildkite" }

// Detect implements Platform.
func (*Buildkite) Detect(environ env.Reader) bool {
	return environ.Getenv(EnvBuildkite) != ""
}

// IdentityToken implements Platform.
func (b *Buildkite) IdentityToken(ctx context.Context, _ env.Reader, audience string) (string, error) {
	return commandToken(ctx, b.Runner, "buildkite-agent", "oidc", "request-token", "--audience", audience)
}

// CircleCI asks the circleci CLI for a token with a custom audience claim.
type CircleCI struct {
	Runner execx.Runner
}

// EnvCircleCI marks a CircleCI job.
const EnvCircleCI = "CIRCLECI"

// Name implements Platform.
func (*CircleCI) Name() string { return "CircleCI" }

// Detect implements Platform.
func (*CircleCI) Detect(environ env.Reader) bool {
	return environ.Getenv(EnvCircleCI) != ""
}

// IdentityToken implements Platform.
func (c *CircleCI) IdentityToken(ctx context.Context, _ env.Reader, audience string) (string, error) {
	claims, err := json.Marshal(map[string]string{"aud": audience})
	if err != nil {
		return "", fmt.Errorf("encoding claims: %w", err)
	}
	return commandToken(ctx, c.Runner, "circleci", "run", "oidc", "get", "--claims", string(claims))
}

func commandToken(ctx context.Context, runner execx.Runner, name string, args ...string) (string, error) {
	if runner == nil {
		runner = &execx.Exec{}
	}
	if _, err := runner.LookPath(name); err != nil {
		return "", fmt.Errorf("%w: %s not found: %w", ErrIdentityUnavailable, name, err)
	}

	out, err := runner.Output(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("%w: %s returned an empty token", ErrIdentityUnavailable, name)
	}
	return token, nil
}

// getJSON sends req and decodes a bounded 2xx JSON body into v. Non-2xx
// responses are returned as *httperr.CodedError.
func getJSON(client *http.Client, req *http.Request, v any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if err := httperr.FromResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Redacted(), err)
	}
	return nil
}
