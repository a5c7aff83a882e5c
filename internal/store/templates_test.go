// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TemplateStore {
	t.Helper()
	s, err := NewTemplateStore(filepath.Join(t.TempDir(), "templates.json"))
	require.NoError(t, err)
	return s
}

func TestTemplateStore_EmptyOnMissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.List())
}

func TestTemplateStore_PutGetDelete(t *testing.T) {
	s := newTestStore(t)

	tmpl := Template{Name: "review", Prompt: "Review this code:", SystemInstruction: "You are a reviewer."}
	require.NoError(t, s.Put(tmpl))

	got, err := s.Get("review")
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)

	require.NoError(t, s.Delete("review"))
	_, err = s.Get("review")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateStore_PutValidatesName(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Put(Template{Name: "  "}), ErrTemplateName)
}

func TestTemplateStore_DeleteUnknown(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Delete("nope"), ErrTemplateNotFound)
}

func TestTemplateStore_ListSorted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(Template{Name: "zeta", Prompt: "z"}))
	require.NoError(t, s.Put(Template{Name: "alpha", Prompt: "a"}))
	require.NoError(t, s.Put(Template{Name: "mid", Prompt: "m"}))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}

func TestTemplateStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	s, err := NewTemplateStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(Template{Name: "keep", Prompt: "kept"}))

	reopened, err := NewTemplateStore(path)
	require.NoError(t, err)
	got, err := reopened.Get("keep")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Prompt)
}

func TestTemplateStore_ReloadPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	s, err := NewTemplateStore(path)
	require.NoError(t, err)

	external := `[{"name": "external", "prompt": "edited outside"}]`
	require.NoError(t, os.WriteFile(path, []byte(external), 0600))
	require.NoError(t, s.Reload())

	got, err := s.Get("external")
	require.NoError(t, err)
	assert.Equal(t, "edited outside", got.Prompt)
}

func TestTemplateStore_ReloadSkipsUnnamedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	content := `[{"name": "", "prompt": "ignored"}, {"name": "ok", "prompt": "kept"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := NewTemplateStore(path)
	require.NoError(t, err)
	assert.Len(t, s.List(), 1)
}

func TestTemplateWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	s, err := NewTemplateStore(path)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w, err := NewTemplateWatcher(s, 50*time.Millisecond, func(err error) {
		reloaded <- err
	})
	require.NoError(t, err)
	require.NoError(t, w.Watch())
	defer w.Close()

	content := `[{"name": "live", "prompt": "reloaded"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}

	got, err := s.Get("live")
	require.NoError(t, err)
	assert.Equal(t, "reloaded", got.Prompt)
}
