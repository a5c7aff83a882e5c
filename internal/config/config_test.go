// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "gemini-2.5-flash", cfg.DefaultModel)
	assert.NotEmpty(t, cfg.Models)
	assert.False(t, cfg.Generation.SearchGrounding, "out-of-box default is plain sampling")
	assert.Equal(t, "png", cfg.Image.OutputFormat)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty default model",
			mutate:  func(c *Config) { c.DefaultModel = "" },
			wantErr: "default_model",
		},
		{
			name:    "blank model entry",
			mutate:  func(c *Config) { c.Models = []string{"gemini-2.5-flash", "  "} },
			wantErr: "models[1]",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Generation.Temperature = 2.5 },
			wantErr: "generation.temperature",
		},
		{
			name:    "pipeline top_p out of range",
			mutate:  func(c *Config) { c.Pipelines = []PipelineConfig{{Label: "hot", TopP: 1.5}} },
			wantErr: "pipelines[0].top_p",
		},
		{
			name:    "image count too high",
			mutate:  func(c *Config) { c.Image.Count = 9 },
			wantErr: "image.count",
		},
		{
			name:    "bad image format",
			mutate:  func(c *Config) { c.Image.OutputFormat = "webp" },
			wantErr: "image.output_format",
		},
		{
			name:    "bad theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: "ui.theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	defaults := Default()
	assert.Equal(t, defaults.DefaultModel, cfg.DefaultModel)
	assert.Equal(t, defaults.Models, cfg.Models)
	assert.Equal(t, defaults.Image.Model, cfg.Image.Model)
	assert.Equal(t, defaults.UI.Theme, cfg.UI.Theme)
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		DefaultModel: "gemini-2.5-pro",
		Models:       []string{"gemini-2.5-pro"},
		UI:           UIConfig{Theme: "light"},
	}
	cfg.SetDefaults()

	assert.Equal(t, "gemini-2.5-pro", cfg.DefaultModel)
	assert.Equal(t, []string{"gemini-2.5-pro"}, cfg.Models)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestTargetGenConfig(t *testing.T) {
	cfg := Default()

	cfg.Generation.SearchGrounding = true
	assert.IsType(t, model.Grounded{}, cfg.TargetGenConfig())

	cfg.Generation.SearchGrounding = false
	cfg.Generation.Temperature = 0.7
	cfg.Generation.TopP = 0.9
	cfg.Generation.SystemInstruction = "  be terse  "

	gc := cfg.TargetGenConfig()
	sampled, ok := gc.(model.Sampled)
	require.True(t, ok)
	assert.InDelta(t, 0.7, float64(sampled.Temperature), 1e-6)
	assert.InDelta(t, 0.9, float64(sampled.TopP), 1e-6)
	assert.Equal(t, "be terse", sampled.SystemInstruction)
}

func TestPipelineConfig_Name(t *testing.T) {
	assert.Equal(t, "precise", PipelineConfig{Label: "precise"}.Name())
	assert.Equal(t, "t=0.20 p=0.90", PipelineConfig{Temperature: 0.2, TopP: 0.9}.Name())
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
default_model = "gemini-2.5-pro"
models = ["gemini-2.5-pro"]

[generation]
search_grounding = false
temperature = 0.3
top_p = 0.95
system_instruction = "answer briefly"

[[pipelines]]
label = "precise"
temperature = 0.1

[[pipelines]]
label = "creative"
temperature = 1.2
top_p = 0.99

[image]
count = 3
output_format = "jpeg"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.DefaultModel)
	assert.False(t, cfg.Generation.SearchGrounding)
	assert.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-9)
	require.Len(t, cfg.Pipelines, 2)
	assert.Equal(t, "precise", cfg.Pipelines[0].Label)
	assert.Equal(t, 3, cfg.Image.Count)
	assert.Equal(t, "jpeg", cfg.Image.OutputFormat)
	// Unset fields still get defaults
	assert.Equal(t, "imagen-3.0-generate-002", cfg.Image.Model)
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[generation]\ntemperature = 5.0\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation.temperature")
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"default_model": "gemini-2.5-flash", "ui": {"theme": "light"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := Default()
	cfg.DefaultModel = "gemini-2.5-pro"
	cfg.Pipelines = []PipelineConfig{{Label: "precise", Temperature: 0.1, TopP: 0.5}}

	path := filepath.Join(dir, "roundtrip.toml")
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultModel, loaded.DefaultModel)
	assert.Equal(t, cfg.Pipelines, loaded.Pipelines)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FANOUT_MODEL", "gemini-override")
	t.Setenv("FANOUT_MODELS", "a, b ,c")
	t.Setenv("FANOUT_GROUNDING", "true")
	t.Setenv("FANOUT_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "gemini-override", cfg.DefaultModel)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Models)
	assert.True(t, cfg.Generation.SearchGrounding)
	assert.Equal(t, "light", cfg.UI.Theme)
}
