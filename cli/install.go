// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stacklok/pdmkit/installer"
	"github.com/stacklok/pdmkit/termui"
)

type installOptions struct {
	installer.Options
	noFrozenDeps bool
	extraDeps    []string
}

func registerInstallFlags(flags *pflag.FlagSet, o *installOptions, defaults installer.Options) {
	flags.StringVarP(&o.Version, "version", "v", defaults.Version,
		"Specify the version to be installed, or HEAD to install from the main branch")
	flags.BoolVar(&o.Prerelease, "prerelease", defaults.Prerelease, "Allow prereleases to be installed")
	flags.BoolVar(&o.noFrozenDeps, "no-frozen-deps", !defaults.FrozenDeps, "Do not install frozen dependency versions")
	flags.BoolVar(&o.Remove, "remove", defaults.Remove, "Remove the PDM installation")
	flags.StringVarP(&o.Location, "path", "p", defaults.Location, "Specify location to install PDM")
	flags.BoolVar(&o.SkipAddToPath, "skip-add-to-path", defaults.SkipAddToPath, "Do not add binary to the PATH.")
	flags.StringVarP(&o.Output, "output", "o", "", "Output file to write the installation info to")
	flags.StringArrayVarP(&o.extraDeps, "dep", "d", nil, "Specify additional dependencies, can be given multiple times")
	flags.StringVar(&o.Python, "python", "", "Python interpreter used to create the environment")
}

// NewInstallCommand creates the install-pdm command. Flag defaults come
// from the PDM_* environment variables.
func NewInstallCommand(deps Deps) *cobra.Command {
	deps = deps.withDefaults()
	defaults := installer.OptionsFromEnv(deps.Env)
	o := &installOptions{}

	cmd := newRootCommand("install-pdm", "Install or remove PDM in an isolated environment")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		opts := o.Options
		opts.FrozenDeps = !o.noFrozenDeps
		opts.Deps = append(append([]string(nil), defaults.Deps...), o.extraDeps...)
		return runInstall(cmd, deps, opts)
	}
	registerInstallFlags(cmd.Flags(), o, defaults)
	return cmd
}

func runInstall(cmd *cobra.Command, deps Deps, opts installer.Options) error {
	logger := slog.Default()

	options := []installer.Option{
		installer.WithEnv(deps.Env),
		installer.WithUI(termui.New(cmd.OutOrStdout(), deps.Env)),
		installer.WithLogger(logger),
	}
	if deps.Runner != nil {
		options = append(options, installer.WithRunner(deps.Runner))
	}

	inst, err := installer.New(opts, options...)
	if err != nil {
		return err
	}
	if opts.Remove {
		return inst.Uninstall(cmd.Context())
	}
	res, err := inst.Install(cmd.Context())
	if err != nil {
		return err
	}
	logger.Debug("installed", "version", res.PDMVersion, "bin", res.PDMBin)
	return nil
}
