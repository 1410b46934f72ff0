// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	value := reader.Getenv("PDM_PUBLISH_REPO")

Configuration merging and CI platform detection never read the process
environment directly; they accept a Reader so that a fixed snapshot can be
passed instead:

	snapshot := env.Snapshot()
	cfg, err := config.Merge(config.Defaults(), stored, snapshot, cli)

# Testing

MapReader is the simplest substitute in tests:

	r := env.MapReader{"GITHUB_ACTIONS": "true"}

A generated mock is available in the mocks sub-package when call
expectations matter:

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().Getenv("PDM_PUBLISH_USERNAME").Return("alice")
*/
package env
