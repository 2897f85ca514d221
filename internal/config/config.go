// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Provider names accepted in the provider field.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config represents the complete hiwar configuration.
type Config struct {
	// Provider selects the chat backend.
	Provider string `toml:"provider" json:"provider"`

	Gemini     GeminiConfig     `toml:"gemini" json:"gemini"`
	OpenRouter OpenRouterConfig `toml:"openrouter" json:"openrouter"`
	Ollama     OllamaConfig     `toml:"ollama" json:"ollama"`
	Generation GenerationConfig `toml:"generation" json:"generation"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Log        LogConfig        `toml:"log" json:"log"`
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string `toml:"api_key" json:"api_key"`
	Model  string `toml:"model" json:"model"`
}

// OpenRouterConfig configures the OpenRouter backend.
type OpenRouterConfig struct {
	APIKey  string `toml:"api_key" json:"api_key"`
	Model   string `toml:"model" json:"model"`
	BaseURL string `toml:"base_url" json:"base_url"`
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	URL   string `toml:"url" json:"url"`
	Model string `toml:"model" json:"model"`
}

// GenerationConfig holds sampling parameters shared by all backends.
type GenerationConfig struct {
	Temperature float64 `toml:"temperature" json:"temperature"`
	TopP        float64 `toml:"top_p" json:"top_p"`
	TopK        int     `toml:"top_k" json:"top_k"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Language is "ar", "en" or "auto" (detect from the environment).
	Language  string `toml:"language" json:"language"`
	Markdown  bool   `toml:"markdown" json:"markdown"`
	AltScreen bool   `toml:"alt_screen" json:"alt_screen"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `toml:"file" json:"file"`
	Level string `toml:"level" json:"level"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderGemini,
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   "openrouter/auto",
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Ollama: OllamaConfig{
			URL:   "http://127.0.0.1:11434",
			Model: "qwen2.5:7b",
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
			TopP:        1,
			TopK:        1,
		},
		UI: UIConfig{
			Language:  "ar",
			Markdown:  true,
			AltScreen: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the hiwar configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".hiwar"), nil
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

// DefaultLogPath returns ~/.hiwar/hiwar.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hiwar.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions forces config files to 0600 since they hold API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
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
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
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

// LoadFromPath loads configuration from a specific file path. Values missing
// from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# hiwar configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
// API keys are not checked here; a missing key is reported when the
// backend is created so the error names the provider.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Provider {
	case ProviderGemini, ProviderOpenRouter, ProviderOllama:
	default:
		errs = append(errs, ValidationError{
			Field:   "provider",
			Message: fmt.Sprintf("must be one of gemini, openrouter, ollama (got %q)", c.Provider),
		})
	}

	if err := validateURL(c.OpenRouter.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "openrouter.base_url", Message: err.Error()})
	}
	if err := validateURL(c.Ollama.URL); err != nil {
		errs = append(errs, ValidationError{Field: "ollama.url", Message: err.Error()})
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "generation.temperature", Message: "must be between 0 and 2"})
	}
	if c.Generation.TopP <= 0 || c.Generation.TopP > 1 {
		errs = append(errs, ValidationError{Field: "generation.top_p", Message: "must be in (0, 1]"})
	}
	if c.Generation.TopK < 1 {
		errs = append(errs, ValidationError{Field: "generation.top_k", Message: "must be at least 1"})
	}

	switch c.UI.Language {
	case "ar", "en", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.language",
			Message: fmt.Sprintf("must be ar, en or auto (got %q)", c.UI.Language),
		})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// SetDefaults fills in empty values and normalizes case.
func (c *Config) SetDefaults() {
	defaults := Default()

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaults.Gemini.Model
	}
	if c.OpenRouter.Model == "" {
		c.OpenRouter.Model = defaults.OpenRouter.Model
	}
	if c.OpenRouter.BaseURL == "" {
		c.OpenRouter.BaseURL = defaults.OpenRouter.BaseURL
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaults.Ollama.Model
	}

	c.UI.Language = strings.ToLower(strings.TrimSpace(c.UI.Language))
	if c.UI.Language == "" {
		c.UI.Language = defaults.UI.Language
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - API_KEY, GEMINI_API_KEY: gemini.api_key (GEMINI_API_KEY wins)
//   - HIWAR_PROVIDER: provider
//   - HIWAR_MODEL: model of the selected provider
//   - HIWAR_LANG: ui.language
//   - HIWAR_OPENROUTER_KEY: openrouter.api_key
//   - HIWAR_OLLAMA_URL: ollama.url
//   - HIWAR_LOG_LEVEL: log.level
//   - HIWAR_MARKDOWN: ui.markdown
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}

	if provider := os.Getenv("HIWAR_PROVIDER"); provider != "" {
		c.Provider = strings.ToLower(provider)
	}

	// Applied after HIWAR_PROVIDER so it targets the final provider
	if model := os.Getenv("HIWAR_MODEL"); model != "" {
		c.SetModel(model)
	}

	if lang := os.Getenv("HIWAR_LANG"); lang != "" {
		c.UI.Language = lang
	}

	if key := os.Getenv("HIWAR_OPENROUTER_KEY"); key != "" {
		c.OpenRouter.APIKey = key
	}

	if u := os.Getenv("HIWAR_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	if level := os.Getenv("HIWAR_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if md := os.Getenv("HIWAR_MARKDOWN"); md != "" {
		if v, err := strconv.ParseBool(md); err == nil {
			c.UI.Markdown = v
		}
	}
}

// SetModel sets the model of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case ProviderOpenRouter:
		c.OpenRouter.Model = model
	case ProviderOllama:
		c.Ollama.Model = model
	default:
		c.Gemini.Model = model
	}
}

// Model returns the model of the selected provider.
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderOpenRouter:
		return c.OpenRouter.Model
	case ProviderOllama:
		return c.Ollama.Model
	default:
		return c.Gemini.Model
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON rendering with API keys redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	if safe.OpenRouter.APIKey != "" {
		safe.OpenRouter.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
