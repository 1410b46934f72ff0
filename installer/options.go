// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"strings"

	"github.com/stacklok/pdmkit/env"
)

// Environment variables providing defaults for the installer flags.
const (
	EnvHome          = "PDM_HOME"
	EnvVersion       = "PDM_VERSION"
	EnvPrerelease    = "PDM_PRERELEASE"
	EnvNoFrozenDeps  = "PDM_NO_FROZEN_DEPS"
	EnvDeps          = "PDM_DEPS"
	EnvSkipAddToPath = "PDM_SKIP_ADD_TO_PATH"
	EnvRemove        = "PDM_REMOVE"
)

// Options selects what to install and where.
type Options struct {
	// Location is the installation home. Empty selects the user data dir.
	Location string
	// Version pins the PDM version. "HEAD" installs the main branch.
	Version string
	// Prerelease allows pip to pick pre-releases.
	Prerelease bool
	// FrozenDeps installs the "locked" extra with pinned dependencies.
	FrozenDeps bool
	// Deps are extra requirements installed alongside PDM.
	Deps []string
	// SkipAddToPath suppresses the PATH hint.
	SkipAddToPath bool
	// Remove uninstalls instead of installing.
	Remove bool
	// Output is a file receiving the JSON installation summary.
	Output string
	// Python is the interpreter used to create the environment.
	Python string
}

// OptionsFromEnv returns the defaults derived from the PDM_* variables.
func OptionsFromEnv(environ env.Reader) Options {
	var deps []string
	for _, d := range strings.Split(environ.Getenv(EnvDeps), ",") {
		if d = strings.TrimSpace(d); d != "" {
			deps = append(deps, d)
		}
	}

	return Options{
		Location:      environ.Getenv(EnvHome),
		Version:       environ.Getenv(EnvVersion),
		Prerelease:    environ.Getenv(EnvPrerelease) != "",
		FrozenDeps:    environ.Getenv(EnvNoFrozenDeps) == "",
		Deps:          deps,
		SkipAddToPath: environ.Getenv(EnvSkipAddToPath) != "",
		Remove:        environ.Getenv(EnvRemove) != "",
	}
}
