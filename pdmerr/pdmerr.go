// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pdmerr defines the user-facing error kind shared by the publish
// and installer commands.
package pdmerr

import (
	"errors"
	"fmt"
)

// Exit codes returned by the commands.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError reports a configuration problem the operator has to fix:
// missing credentials, an unsupported CI platform, a misconfigured CI
// environment. It is never retried.
type UsageError struct {
	msg string
	err error
}

// Usage creates a UsageError with a formatted message.
func Usage(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// WrapUsage creates a UsageError whose message is followed by the cause.
// The cause stays reachable through errors.Is and errors.As.
func WrapUsage(err error, format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...), err: err}
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap returns the cause, if any.
func (e *UsageError) Unwrap() error {
	return e.err
}

// IsUsage reports whether err's chain contains a UsageError.
func IsUsage(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUsage(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}
