// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/pdmkit/logging"
	"github.com/stacklok/pdmkit/pdmerr"
)

const (
	flagLogLevel  = "loglevel"
	flagLogFormat = "logformat"
)

// RegisterLoggingFlags adds the persistent --loglevel and --logformat flags.
func RegisterLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(flagLogLevel, "warn", "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(flagLogFormat, "text", "set the log format (text, json)")
}

// GetBaseLogger builds the logger selected by the logging flags. Logs go to
// the command's stderr so they never mix with command output.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cmd.Flag(flagLogLevel).Value.String())
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cmd.Flag(flagLogFormat).Value.String())
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithOutput(cmd.ErrOrStderr()),
	), nil
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	logger, err := GetBaseLogger(cmd)
	if err != nil {
		return pdmerr.WrapUsage(err, "could not retrieve logger")
	}
	slog.SetDefault(logger)
	return nil
}
