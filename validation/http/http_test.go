// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeaderValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{"valid token", "pypi-AgEIcHlwaS5vcmc", false},
		{"valid with spaces", "Bearer abc def", false},

		// CRLF injection attacks
		{"crlf injection", "token\r\nX-Injected: malicious", true},
		{"newline injection", "token\nInjected", true},

		{"null byte", "token\x00", true},
		{"empty string", "", true},
		{"too long", strings.Repeat("a", maxTokenLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderValue(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateToken("minted_oidc_token"))

	err := ValidateToken("bad\r\ntoken")
	assert.ErrorContains(t, err, "invalid token")
}

func TestValidateRepositoryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{"pypi legacy", "https://upload.pypi.org/legacy/", false},
		{"plain http", "http://localhost:8080/upload", false},
		{"empty", "", true},
		{"no scheme", "upload.pypi.org/legacy/", true},
		{"ftp scheme", "ftp://example.com/upload", true},
		{"no host", "https:///legacy/", true},
		{"fragment", "https://example.com/upload#frag", true},
		{"unparseable", "https://exa mple.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateRepositoryURL(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
