// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyring_SaveLoadRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	k := NewKeyring(t.TempDir())

	require.False(t, k.HasAPIKey())
	require.NoError(t, k.SaveAPIKey("AIzaSyTestKey_1234567890abcdef"))
	require.True(t, k.HasAPIKey())

	got, err := k.LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "AIzaSyTestKey_1234567890abcdef", got)
}

func TestKeyring_NoCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	k := NewKeyring(t.TempDir())

	_, err := k.LoadAPIKey()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestKeyring_EnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key-wins")
	k := NewKeyring(t.TempDir())

	got, err := k.LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "env-key-wins", got)
}

func TestKeyring_CredentialEncryptedAtRest(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()
	k := NewKeyring(dir)

	require.NoError(t, k.SaveAPIKey("plaintext-secret-key-value"))

	data, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), EncryptedPrefix))
	assert.NotContains(t, string(data), "plaintext-secret-key-value")

	// Key material and credential are owner-only
	for _, name := range []string{"master.key", "master.key.salt", "credentials.enc"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
}

func TestKeyring_TamperedCiphertext(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()
	k := NewKeyring(dir)
	require.NoError(t, k.SaveAPIKey("some-valid-api-key-aaaa"))

	path := filepath.Join(dir, "credentials.enc")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte inside the base64 payload
	data[len(data)-2] ^= 1
	if data[len(data)-2] == '=' {
		data[len(data)-2] = 'A'
	}
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, err = k.LoadAPIKey()
	require.Error(t, err)
}

func TestKeyring_SaveReplacesCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	k := NewKeyring(t.TempDir())

	require.NoError(t, k.SaveAPIKey("first-key-0123456789"))
	require.NoError(t, k.SaveAPIKey("second-key-0123456789"))

	got, err := k.LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "second-key-0123456789", got)
}

func TestKeyring_DeleteAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	k := NewKeyring(t.TempDir())

	require.NoError(t, k.SaveAPIKey("deletable-key-0123456789"))
	require.NoError(t, k.DeleteAPIKey())
	require.False(t, k.HasAPIKey())

	// Deleting again is not an error
	require.NoError(t, k.DeleteAPIKey())

	// Key material survives, so a re-save works
	require.NoError(t, k.SaveAPIKey("new-key-0123456789"))
	got, err := k.LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "new-key-0123456789", got)
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}
