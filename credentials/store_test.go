// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
	orascreds "oras.land/oras-go/v2/registry/remote/credentials"
)

// failingBackend is an oras credential store whose helper is broken.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (auth.Credential, error) {
	return auth.EmptyCredential, errors.New("helper exited with status 1")
}

func (failingBackend) Put(context.Context, string, auth.Credential) error {
	return errors.New("helper exited with status 1")
}

func (failingBackend) Delete(context.Context, string) error {
	return nil
}

var _ orascreds.Store = failingBackend{}

func TestKeyring_SaveAndLookup(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemory()

	_, ok, err := store.Lookup(ctx, "https://test.org/upload")
	require.NoError(t, err)
	assert.False(t, ok, "empty store must report absence without error")

	require.NoError(t, store.Save(ctx, "https://test.org/upload", "foo", "barbaz"))

	cred, ok, err := store.Lookup(ctx, "https://test.org/upload")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Credential{Username: "foo", Password: "barbaz"}, cred)

	_, ok, err = store.Lookup(ctx, "https://other.org/upload")
	require.NoError(t, err)
	assert.False(t, ok, "lookups are keyed by the exact url")
}

func TestKeyring_UsernameOnlyEntryIsAbsent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	backend := orascreds.NewMemoryStore()
	require.NoError(t, backend.Put(ctx, "https://test.org/upload", auth.Credential{Username: "foo"}))

	store, err := NewKeyring(WithBackend(backend))
	require.NoError(t, err)

	_, ok, err := store.Lookup(ctx, "https://test.org/upload")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyring_BackendErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := NewKeyring(WithBackend(failingBackend{}), WithLogger(logger))
	require.NoError(t, err)

	_, ok, err := store.Lookup(t.Context(), "https://test.org/upload")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "reading credentials for https://test.org/upload")
	assert.Contains(t, buf.String(), "failed to get credential")

	err = store.Save(t.Context(), "https://test.org/upload", "foo", "bar")
	assert.ErrorContains(t, err, "saving credentials")
}

func TestKeyring_LogsNeverContainSecret(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := NewKeyring(WithBackend(orascreds.NewMemoryStore()), WithLogger(logger))
	require.NoError(t, err)

	ctx := t.Context()
	require.NoError(t, store.Save(ctx, "https://test.org/upload", "foo", "s3cr3t"))
	_, _, err = store.Lookup(ctx, "https://test.org/upload")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "username=foo")
	assert.NotContains(t, buf.String(), "s3cr3t")
}

func TestWithNativeHelper(t *testing.T) {
	t.Parallel()

	store, err := NewKeyring(WithNativeHelper("pass"))
	require.NoError(t, err)
	assert.NotNil(t, store.store)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var s Store = Nop{}
	require.NoError(t, s.Save(t.Context(), "u", "a", "b"))
	_, ok, err := s.Lookup(t.Context(), "u")
	require.NoError(t, err)
	assert.False(t, ok)
}
