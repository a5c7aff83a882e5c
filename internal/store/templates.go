// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTemplateNotFound indicates no template exists with the given name
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateName indicates an empty or invalid template name
	ErrTemplateName = errors.New("template name cannot be empty")
)

// =============================================================================
// TEMPLATE STORE
// =============================================================================

// Template is a reusable prompt preset.
type Template struct {
	// Name identifies the template (case-sensitive, unique)
	Name string `json:"name"`
	// Prompt is the prompt text, inserted into the composer on use
	Prompt string `json:"prompt"`
	// SystemInstruction optionally overrides the session system prompt
	SystemInstruction string `json:"system_instruction,omitempty"`
}

// TemplateStore manages named prompt templates backed by a JSON file.
//
// Mutations rewrite the whole file atomically, so concurrent readers
// always see a complete template list.
type TemplateStore struct {
	mu        sync.RWMutex
	path      string
	templates map[string]Template
}

// NewTemplateStore opens (or initializes) the template store at path.
// A missing file is treated as an empty store.
func NewTemplateStore(path string) (*TemplateStore, error) {
	s := &TemplateStore{
		path:      path,
		templates: make(map[string]Template),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultTemplatePath returns the template file path in the user's config
// directory.
func DefaultTemplatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fanout", "templates.json"), nil
}

// Path returns the backing file path.
func (s *TemplateStore) Path() string {
	return s.path
}

// Reload replaces the in-memory template set with the file's contents.
// Called on open and by the file watcher when the file changes on disk.
func (s *TemplateStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.templates = make(map[string]Template)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read templates: %w", err)
	}

	var list []Template
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode templates: %w", err)
	}

	templates := make(map[string]Template, len(list))
	for _, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		templates[t.Name] = t
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	return nil
}

// List returns all templates sorted by name.
func (s *TemplateStore) List() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Get returns the template with the given name.
func (s *TemplateStore) Get(name string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

// Put creates or replaces a template and persists the full list.
func (s *TemplateStore) Put(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrTemplateName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[t.Name] = t
	return s.saveLocked()
}

// Delete removes a template by name and persists the full list.
func (s *TemplateStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	delete(s.templates, name)
	return s.saveLocked()
}

// saveLocked writes the full template list. Caller holds s.mu.
func (s *TemplateStore) saveLocked() error {
	list := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}
	return nil
}
