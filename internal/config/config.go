// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete fanout-tui configuration.
type Config struct {
	// General settings
	Version      string `toml:"version" json:"version"`
	DefaultModel string `toml:"default_model" json:"default_model"`

	// Models are the chat models fanned out to at startup. Each entry
	// becomes one target with its own session and transcript.
	Models []string `toml:"models" json:"models"`

	// Generation configuration applied to model targets
	Generation GenerationConfig `toml:"generation" json:"generation"`

	// Pipelines are sampling presets for configuration comparison runs.
	// When non-empty, one pipeline target is created per entry instead of
	// one target per model.
	Pipelines []PipelineConfig `toml:"pipelines" json:"pipelines"`

	// Image generation configuration
	Image ImageConfig `toml:"image" json:"image"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// GenerationConfig contains default generation parameters for chat sessions.
type GenerationConfig struct {
	// SearchGrounding attaches the Google Search tool to every session.
	// Grounded sessions use server-side defaults for sampling, so the
	// temperature and top_p fields below are ignored when this is set.
	SearchGrounding bool `toml:"search_grounding" json:"search_grounding"`
	// Temperature is the sampling temperature, 0-2. Zero means the
	// provider default.
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TopP is the nucleus sampling cutoff, 0-1. Zero means the provider
	// default.
	TopP float64 `toml:"top_p" json:"top_p"`
	// SystemInstruction is prepended to every session as the system prompt.
	SystemInstruction string `toml:"system_instruction" json:"system_instruction"`
}

// PipelineConfig is one sampling preset for configuration comparison.
// All pipelines run against the same model (Config.DefaultModel) so
// differences in output come from the preset alone.
type PipelineConfig struct {
	// Label names the preset in the UI tab bar (e.g. "precise", "creative")
	Label string `toml:"label" json:"label"`
	// Temperature is the sampling temperature, 0-2
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TopP is the nucleus sampling cutoff, 0-1
	TopP float64 `toml:"top_p" json:"top_p"`
	// SystemInstruction overrides the generation section's instruction
	SystemInstruction string `toml:"system_instruction" json:"system_instruction"`
}

// ImageConfig contains image generation settings.
type ImageConfig struct {
	// Model is the image generation model
	Model string `toml:"model" json:"model"`
	// Count is the number of images per request, 1-4
	Count int `toml:"count" json:"count"`
	// OutputFormat is "png" or "jpeg"
	OutputFormat string `toml:"output_format" json:"output_format"`
	// OutputDir is where generated images are written (empty = ~/.fanout/images)
	OutputDir string `toml:"output_dir" json:"output_dir"`
}

// UIConfig contains UI-related configuration.
type UIConfig struct {
	// Theme is the color theme name: "dark", "light"
	Theme string `toml:"theme" json:"theme"`
	// ShowCitations renders grounding citations under model turns
	ShowCitations bool `toml:"show_citations" json:"show_citations"`
	// MarkdownWidth is the wrap width for rendered markdown (0 = terminal width)
	MarkdownWidth int `toml:"markdown_width" json:"markdown_width"`
	// SyntaxTheme is the chroma style used for code blocks
	SyntaxTheme string `toml:"syntax_theme" json:"syntax_theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Version:      "1.0.0",
		DefaultModel: "gemini-2.5-flash",
		Models:       []string{"gemini-2.5-flash", "gemini-2.5-pro"},

		Generation: GenerationConfig{
			// Off by default; the out-of-box run uses plain sampling.
			SearchGrounding:   false,
			Temperature:       0, // provider default
			TopP:              0, // provider default
			SystemInstruction: "",
		},

		Image: ImageConfig{
			Model:        "imagen-3.0-generate-002",
			Count:        2,
			OutputFormat: "png",
			OutputDir:    "",
		},

		UI: UIConfig{
			Theme:         "dark",
			ShowCitations: true,
			MarkdownWidth: 0,
			SyntaxTheme:   "monokai",
		},
	}
}

// =============================================================================
// GENERATION CONFIG MAPPING
// =============================================================================

// TargetGenConfig returns the generation configuration applied to plain
// model targets. Grounding and sampling are mutually exclusive: the Search
// tool rejects custom sampling parameters, so a grounded config carries none.
func (c *Config) TargetGenConfig() model.GenConfig {
	if c.Generation.SearchGrounding {
		return model.Grounded{}
	}
	return model.NewSampled(
		float32(c.Generation.Temperature),
		float32(c.Generation.TopP),
		c.Generation.SystemInstruction,
	)
}

// GenConfig converts a pipeline preset into a session configuration.
func (p PipelineConfig) GenConfig() model.GenConfig {
	return model.NewSampled(float32(p.Temperature), float32(p.TopP), p.SystemInstruction)
}

// Name returns the preset's display name, falling back to a sampling
// summary when no label is configured.
func (p PipelineConfig) Name() string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("t=%.2f p=%.2f", p.Temperature, p.TopP)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the fanout-tui configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fanout"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies overrides, defaults, and validation to a loaded config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML config: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures for one config.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.DefaultModel == "" {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: "cannot be empty",
		})
	}

	for i, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("models[%d]", i),
				Message: "model name cannot be empty",
			})
		}
	}

	if err := validateSampling("generation", c.Generation.Temperature, c.Generation.TopP); err != nil {
		errs = append(errs, err...)
	}

	for i, p := range c.Pipelines {
		field := fmt.Sprintf("pipelines[%d]", i)
		if err := validateSampling(field, p.Temperature, p.TopP); err != nil {
			errs = append(errs, err...)
		}
	}

	if c.Image.Count < 0 || c.Image.Count > 4 {
		errs = append(errs, ValidationError{
			Field:   "image.count",
			Message: fmt.Sprintf("invalid count %d, must be 1-4", c.Image.Count),
		})
	}

	if c.Image.OutputFormat != "" {
		validFormats := map[string]bool{"png": true, "jpeg": true}
		if !validFormats[strings.ToLower(c.Image.OutputFormat)] {
			errs = append(errs, ValidationError{
				Field:   "image.output_format",
				Message: fmt.Sprintf("invalid format '%s', must be one of: png, jpeg", c.Image.OutputFormat),
			})
		}
	}

	if c.UI.Theme != "" {
		validThemes := map[string]bool{"dark": true, "light": true}
		if !validThemes[strings.ToLower(c.UI.Theme)] {
			errs = append(errs, ValidationError{
				Field:   "ui.theme",
				Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
			})
		}
	}

	if c.UI.MarkdownWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.markdown_width",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateSampling checks one temperature/top_p pair.
func validateSampling(field string, temperature, topP float64) ValidateErrors {
	var errs ValidateErrors
	if temperature < 0 || temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   field + ".temperature",
			Message: fmt.Sprintf("invalid temperature %.2f, must be 0-2", temperature),
		})
	}
	if topP < 0 || topP > 1 {
		errs = append(errs, ValidationError{
			Field:   field + ".top_p",
			Message: fmt.Sprintf("invalid top_p %.2f, must be 0-1", topP),
		})
	}
	return errs
}

// =============================================================================
// DEFAULT FILL-IN
// =============================================================================

// SetDefaults fills in zero values with built-in defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	// General defaults
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if len(c.Models) == 0 {
		c.Models = append([]string(nil), defaults.Models...)
	}

	// Image defaults
	if c.Image.Model == "" {
		c.Image.Model = defaults.Image.Model
	}
	if c.Image.Count == 0 {
		c.Image.Count = defaults.Image.Count
	}
	if c.Image.OutputFormat == "" {
		c.Image.OutputFormat = defaults.Image.OutputFormat
	}

	// UI defaults
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SyntaxTheme == "" {
		c.UI.SyntaxTheme = defaults.UI.SyntaxTheme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies FANOUT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if m := os.Getenv("FANOUT_MODEL"); m != "" {
		c.DefaultModel = m
	}
	if models := os.Getenv("FANOUT_MODELS"); models != "" {
		var parsed []string
		for _, m := range strings.Split(models, ",") {
			if m = strings.TrimSpace(m); m != "" {
				parsed = append(parsed, m)
			}
		}
		if len(parsed) > 0 {
			c.Models = parsed
		}
	}
	if grounding := os.Getenv("FANOUT_GROUNDING"); grounding != "" {
		if b, err := strconv.ParseBool(grounding); err == nil {
			c.Generation.SearchGrounding = b
		}
	}
	if m := os.Getenv("FANOUT_IMAGE_MODEL"); m != "" {
		c.Image.Model = m
	}
	if theme := os.Getenv("FANOUT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}
