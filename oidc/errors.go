// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oidc

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no known CI platform is detected.
	ErrUnsupportedPlatform = errors.New("no supported CI platform detected")

	// ErrIdentityUnavailable is returned when a detected CI platform cannot
	// produce an identity token, usually because the job was not granted
	// permission to request one.
	ErrIdentityUnavailable = errors.New("identity token unavailable")

	// ErrInvalidResponse is returned when an index endpoint answers with a
	// payload that lacks the expected field.
	ErrInvalidResponse = errors.New("invalid response from index")
)
