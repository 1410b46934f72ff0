// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package logging provides a pre-configured [log/slog.Logger] factory with
consistent defaults for the pdmkit commands.

# Defaults

  - Format: text ([FormatText]) via [log/slog.TextHandler]
  - Level: WARN ([log/slog.LevelWarn])
  - Output: [os.Stderr]
  - Timestamps: [time.RFC3339]

Attributes named password, token or secret are always masked.

# Basic Usage

	logger := logging.New(logging.WithLevel(slog.LevelDebug))
	logger.Debug("resolving credentials", "repository", cfg.Name)

# Flags

[ParseLevel] and [ParseFormat] convert the --loglevel and --logformat flag
values of the CLI.

# Testing

Inject a buffer to capture log output in tests:

	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf))
*/
package logging
