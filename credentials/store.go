// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=store.go -destination=mocks/mock_store.go -package=mocks Store

import (
	"context"
	"fmt"
	"log/slog"

	"oras.land/oras-go/v2/registry/remote/auth"
	orascreds "oras.land/oras-go/v2/registry/remote/credentials"
)

// Credential is a long-lived username/password pair.
type Credential struct {
	Username string
	Password string
}

// Store reads and writes credentials keyed by upload URL.
type Store interface {
	// Lookup returns the credential stored for url. A missing entry is
	// reported as ok == false with a nil error.
	Lookup(ctx context.Context, url string) (cred Credential, ok bool, err error)

	// Save stores a credential for url, replacing any existing entry.
	Save(ctx context.Context, url, username, password string) error
}

// Compile-time interface checks.
var (
	_ Store = (*Keyring)(nil)
	_ Store = Nop{}
)

// Keyring is a Store backed by an oras credential store: an OS native
// keychain helper, a docker-style config file, or memory.
type Keyring struct {
	store  orascreds.Store
	logger *slog.Logger
}

// Option configures a Keyring.
type Option func(*Keyring)

// WithBackend sets the underlying oras credential store.
func WithBackend(store orascreds.Store) Option {
	return func(k *Keyring) {
		k.store = store
	}
}

// WithNativeHelper uses the docker-credential-<name> helper program
// (osxkeychain, wincred, secretservice, pass) as the backend.
func WithNativeHelper(name string) Option {
	return func(k *Keyring) {
		k.store = orascreds.NewNativeStore(name)
	}
}

// WithLogger sets the logger used for lookup diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Keyring) {
		k.logger = logger
	}
}

// NewKeyring creates a Keyring. Without a backend option it uses the
// docker configuration, detecting the platform's default native helper
// so that secrets are never written to disk in plain text.
func NewKeyring(opts ...Option) (*Keyring, error) {
	k := &Keyring{}
	for _, opt := range opts {
		opt(k)
	}

	if k.logger == nil {
		k.logger = slog.Default()
	}

	if k.store == nil {
		store, err := orascreds.NewStoreFromDocker(orascreds.StoreOptions{
			DetectDefaultNativeStore: true,
		})
		if err != nil {
			return nil, fmt.Errorf("creating credential store: %w", err)
		}
		k.store = store
	}

	return k, nil
}

// NewMemory returns a Keyring that keeps credentials in memory only.
func NewMemory() *Keyring {
	return &Keyring{store: orascreds.NewMemoryStore(), logger: slog.Default()}
}

// Lookup implements Store.
func (k *Keyring) Lookup(ctx context.Context, url string) (Credential, bool, error) {
	logger := k.logger.With("url", url)
	logger.DebugContext(ctx, "looking up stored credentials")

	cred, err := k.store.Get(ctx, url)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get credential", "error", err)
		return Credential{}, false, fmt.Errorf("reading credentials for %s: %w", url, err)
	}
	if cred == auth.EmptyCredential || cred.Password == "" {
		logger.DebugContext(ctx, "no stored credential")
		return Credential{}, false, nil
	}

	logger.InfoContext(ctx, "found stored credential", "username", cred.Username)
	return Credential{Username: cred.Username, Password: cred.Password}, true, nil
}

// Save implements Store.
func (k *Keyring) Save(ctx context.Context, url, username, password string) error {
	err := k.store.Put(ctx, url, auth.Credential{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("saving credentials for %s: %w", url, err)
	}
	k.logger.InfoContext(ctx, "saved credential", "url", url, "username", username)
	return nil
}

// Nop is a Store that never has credentials and discards saves.
type Nop struct{}

// Lookup implements Store.
func (Nop) Lookup(context.Context, string) (Credential, bool, error) {
	return Credential{}, false, nil
}

// Save implements Store.
func (Nop) Save(context.Context, string, string, string) error {
	return nil
}
