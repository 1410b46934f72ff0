// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package http provides validation functions for values that end up in
// HTTP requests to a package index.
package http

import (
	"fmt"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// maxTokenLength is far above what PyPI issues but keeps a broken
// response from producing a huge Authorization header.
const maxTokenLength = 8192

// ValidateHeaderValue validates that a string is a valid HTTP header value per RFC 7230.
// It checks for CRLF injection and control characters.
func ValidateHeaderValue(value string) error {
	if value == "" {
		return fmt.Errorf("header value cannot be empty")
	}

	if len(value) > maxTokenLength {
		return fmt.Errorf("header value exceeds maximum length of %d bytes", maxTokenLength)
	}

	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid HTTP header value: contains control characters")
	}

	return nil
}

// ValidateToken validates a token before it is sent as a credential.
// Tokens are opaque but must survive being placed in an Authorization header.
func ValidateToken(token string) error {
	if err := ValidateHeaderValue(token); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}

// ValidateRepositoryURL validates an upload endpoint URL.
//
// A valid URL must:
//   - Use the http or https scheme
//   - Include a host
//   - Not contain fragments
func ValidateRepositoryURL(repositoryURL string) error {
	if repositoryURL == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}

	parsed, err := url.Parse(repositoryURL)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("repository URL must use http or https: %s", repositoryURL)
	}

	if parsed.Host == "" {
		return fmt.Errorf("repository URL must include a host: %s", repositoryURL)
	}

	if parsed.Fragment != "" {
		return fmt.Errorf("repository URL must not contain fragments (#): %s", repositoryURL)
	}

	return nil
}
