// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/stacklok/pdmkit/execx"
)

// SignatureExt is appended to a file name to form its signature path.
const SignatureExt = ".asc"

// ErrNoSigningKey is returned when a key file holds no usable private key.
var ErrNoSigningKey = errors.New("no private key found")

// Signer creates a detached signature for a file and returns its path.
type Signer interface {
	Sign(ctx context.Context, path string) (string, error)
}

// SignaturePath returns where the signature of path is stored.
func SignaturePath(path string) string {
	return path + SignatureExt
}

// GPG signs with the gpg command line tool.
type GPG struct {
	runner   execx.Runner
	identity string
	logger   *slog.Logger
}

// GPGOption configures a GPG signer.
type GPGOption func(*GPG)

// WithIdentity selects the signing key by user id or fingerprint.
func WithIdentity(identity string) GPGOption {
	return func(g *GPG) {
		g.identity = identity
	}
}

// WithRunner sets the runner used to invoke gpg.
func WithRunner(runner execx.Runner) GPGOption {
	return func(g *GPG) {
		g.runner = runner
	}
}

// WithGPGLogger sets the logger. The default is slog.Default().
func WithGPGLogger(logger *slog.Logger) GPGOption {
	return func(g *GPG) {
		g.logger = logger
	}
}

// NewGPG creates a GPG signer.
func NewGPG(opts ...GPGOption) *GPG {
	g := &GPG{logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	if g.runner == nil {
		g.runner = &execx.Exec{}
	}
	return g
}

// Sign implements Signer.
func (g *GPG) Sign(ctx context.Context, path string) (string, error) {
	args := []string{"--detach-sign"}
	if g.identity != "" {
		args = append(args, "--local-user", g.identity)
	}
	args = append(args, "-a", path)

	g.logger.Debug("signing with gpg", "file", path, "identity", g.identity)
	if err := g.runner.Run(ctx, "gpg", args...); err != nil {
		return "", fmt.Errorf("signing %s: %w", path, err)
	}
	return SignaturePath(path), nil
}

// OpenPGP signs in-process with a private key.
type OpenPGP struct {
	entity *openpgp.Entity
	logger *slog.Logger
}

// NewOpenPGP loads the first private key of an armored key ring. The
// passphrase is used when the key is encrypted and ignored otherwise.
func NewOpenPGP(armoredKey []byte, passphrase []byte, logger *slog.Logger) (*OpenPGP, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armoredKey))
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}

	var entity *openpgp.Entity
	for _, e := range keyring {
		if e.PrivateKey != nil {
			entity = e
			break
		}
	}
	if entity == nil {
		return nil, ErrNoSigningKey
	}

	if entity.PrivateKey.Encrypted {
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("signing key %s is encrypted and no passphrase was given", entity.PrimaryKey.KeyIdString())
		}
		if err := entity.DecryptPrivateKeys(passphrase); err != nil {
			return nil, fmt.Errorf("decrypting signing key: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &OpenPGP{entity: entity, logger: logger}, nil
}

// LoadOpenPGP reads an armored private key file.
func LoadOpenPGP(path string, passphrase []byte, logger *slog.Logger) (*OpenPGP, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	return NewOpenPGP(data, passphrase, logger)
}

// KeyID returns the hexadecimal id of the signing key.
func (o *OpenPGP) KeyID() string {
	return o.entity.PrimaryKey.KeyIdString()
}

// Sign implements Signer.
func (o *OpenPGP) Sign(_ context.Context, path string) (string, error) {
	in, err := os.Open(path) // #nosec G304 -- path comes from the dist directory listing
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer in.Close()

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, o.entity, in, nil); err != nil {
		return "", fmt.Errorf("signing %s: %w", path, err)
	}

	sigPath := SignaturePath(path)
	if err := os.WriteFile(sigPath, sig.Bytes(), 0o644); err != nil { // #nosec G306 -- signatures are public
		return "", fmt.Errorf("writing signature: %w", err)
	}

	o.logger.Debug("signed file", "file", path, "key", o.KeyID())
	return sigPath, nil
}
