// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stacklok/pdmkit/config"
	"github.com/stacklok/pdmkit/credentials"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/oidc"
	"github.com/stacklok/pdmkit/publish"
	"github.com/stacklok/pdmkit/signing"
	"github.com/stacklok/pdmkit/termui"
)

// EnvSigningPassphrase unlocks an encrypted --signing-key.
const EnvSigningPassphrase = "PDM_PUBLISH_SIGNING_PASSPHRASE"

type publishOptions struct {
	configPath   string
	repository   string
	username     string
	password     string
	caCerts      string
	verifySSL    bool
	noVerifySSL  bool
	sign         bool
	identity     string
	signingKey   string
	noBuild      bool
	comment      string
	skipExisting bool
	dest         string
}

func registerPublishFlags(flags *pflag.FlagSet, o *publishOptions) {
	flags.StringVar(&o.configPath, "config", config.DefaultPath(), "path to the repository configuration file")
	flags.StringVarP(&o.repository, "repository", "r", "",
		"the repository name or url to publish the package to [env var: "+config.EnvRepo+"]")
	flags.StringVarP(&o.username, "username", "u", "",
		"the username to access the repository [env var: "+config.EnvUsername+"]")
	flags.StringVarP(&o.password, "password", "P", "",
		"the password to access the repository [env var: "+config.EnvPassword+"]")
	flags.StringVar(&o.caCerts, "ca-certs", "",
		"the path to a PEM-encoded certificate authority bundle [env var: "+config.EnvCACerts+"]")
	flags.BoolVar(&o.verifySSL, "verify-ssl", false, "verify the repository TLS certificate")
	flags.BoolVar(&o.noVerifySSL, "no-verify-ssl", false, "disable TLS certificate verification")
	flags.BoolVarP(&o.sign, "sign", "S", false, "upload the package with PGP signature")
	flags.StringVarP(&o.identity, "identity", "i", "", "GPG identity used to sign files")
	flags.StringVar(&o.signingKey, "signing-key", "",
		"armored OpenPGP private key used to sign in-process instead of gpg [passphrase env var: "+EnvSigningPassphrase+"]")
	flags.BoolVar(&o.noBuild, "no-build", false, "don't build the package before publishing")
	flags.StringVarP(&o.comment, "comment", "c", "", "the comment to include with the distribution file")
	flags.BoolVar(&o.skipExisting, "skip-existing", false, "skip uploading files that already exist")
	flags.StringVarP(&o.dest, "dest", "d", "dist", "the directory holding the distribution files")
}

// NewPublishCommand creates the pdm-publish command.
func NewPublishCommand(deps Deps) *cobra.Command {
	o := &publishOptions{}
	cmd := newRootCommand("pdm-publish", "Build and publish the project to PyPI")
	cmd.Long = `Build the project and upload its distribution files to a package index.

Credentials are taken from the command line, the PDM_PUBLISH_* environment
variables, the configuration file or the system keyring. On a supported CI
platform with no configured password an upload token is obtained through
trusted publishing. Otherwise the missing values are prompted for.`
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runPublish(cmd, deps.withDefaults(), o)
	}
	registerPublishFlags(cmd.Flags(), o)
	return cmd
}

func (o *publishOptions) flags(cmd *cobra.Command) (config.Flags, error) {
	f := config.Flags{
		Repository: o.repository,
		Username:   o.username,
		Password:   o.password,
		CACerts:    o.caCerts,
	}
	verifyChanged, noVerifyChanged := cmd.Flags().Changed("verify-ssl"), cmd.Flags().Changed("no-verify-ssl")
	switch {
	case verifyChanged && noVerifyChanged:
		return config.Flags{}, conflicting("verify-ssl", "no-verify-ssl")
	case verifyChanged:
		f.VerifySSL = boolPtr(o.verifySSL)
	case noVerifyChanged:
		f.VerifySSL = boolPtr(!o.noVerifySSL)
	}
	return f, nil
}

func runPublish(cmd *cobra.Command, deps Deps, o *publishOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	flags, err := o.flags(cmd)
	if err != nil {
		return err
	}
	stored, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Merge(config.Defaults(), stored, deps.Env, flags)
	if err != nil {
		return err
	}
	logger.Debug("publishing", "repository", cfg.String())

	client, err := publish.NewHTTPClient(cfg)
	if err != nil {
		return err
	}

	minterOpts := []oidc.Option{
		oidc.WithHTTPClient(client),
		oidc.WithEnv(deps.Env),
		oidc.WithLogger(logger),
	}
	if deps.Runner != nil {
		minterOpts = append(minterOpts, oidc.WithRunner(deps.Runner))
	}

	resolver := publish.NewResolver(
		publish.WithStore(openStore(deps, logger)),
		publish.WithMinter(oidc.NewMinter(minterOpts...)),
		publish.WithPrompter(termui.NewPrompter(deps.Stdin, cmd.ErrOrStderr())),
		publish.WithResolverLogger(logger),
	)
	creds, err := resolver.Resolve(ctx, cfg)
	if err != nil {
		return err
	}

	repo, err := publish.NewRepository(cfg, creds,
		publish.WithHTTPClient(client),
		publish.WithRepositoryLogger(logger),
	)
	if err != nil {
		return err
	}

	runner := deps.Runner
	if runner == nil {
		runner = &execx.Exec{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}
	pubOpts := []publish.PublisherOption{
		publish.WithRunner(runner),
		publish.WithUI(termui.New(cmd.OutOrStdout(), deps.Env)),
		publish.WithPublisherLogger(logger),
	}
	if o.sign {
		signer, err := o.signer(deps, runner, logger)
		if err != nil {
			return err
		}
		pubOpts = append(pubOpts, publish.WithSigner(signer))
	}
	if creds.Persist {
		pubOpts = append(pubOpts, publish.WithAfterFirstUpload(func(ctx context.Context) error {
			return resolver.Save(ctx, cfg, creds)
		}))
	}

	_, err = publish.NewPublisher(repo, pubOpts...).Publish(ctx, publish.Options{
		DistDir:      o.dest,
		Build:        !o.noBuild,
		SkipExisting: o.skipExisting,
		Comment:      o.comment,
	})
	return err
}

func (o *publishOptions) signer(deps Deps, runner execx.Runner, logger *slog.Logger) (signing.Signer, error) {
	if o.signingKey != "" {
		signer, err := signing.LoadOpenPGP(o.signingKey, []byte(deps.Env.Getenv(EnvSigningPassphrase)), logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("signing in-process", "key", signer.KeyID())
		return signer, nil
	}
	return signing.NewGPG(
		signing.WithIdentity(o.identity),
		signing.WithRunner(runner),
		signing.WithGPGLogger(logger),
	), nil
}

func openStore(deps Deps, logger *slog.Logger) credentials.Store {
	if deps.Store != nil {
		return deps.Store
	}
	store, err := credentials.NewKeyring(credentials.WithLogger(logger))
	if err != nil {
		logger.Warn("credential store unavailable", "error", err)
		return credentials.Nop{}
	}
	return store
}
