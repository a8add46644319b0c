/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config persists the user-editable application configuration
// as YAML in the user scope. Environment variables act as read-only
// overrides at runtime; secrets live in the OS keyring, never on disk.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	EnableSync     bool   `yaml:"enable_sync"`
}

// BoardConfig holds the defaults applied to new boards.
type BoardConfig struct {
	GridSpacing     float64 `yaml:"grid_spacing"`
	GridOpacity     float64 `yaml:"grid_opacity"`
	GridColor       string  `yaml:"grid_color"`
	SnapToGrid      bool    `yaml:"snap_to_grid"`
	BackgroundColor string  `yaml:"background_color"`
}

type ExportConfig struct {
	PixelRatio    float64 `yaml:"pixel_ratio"`
	WatermarkPath string  `yaml:"watermark_path"`
}

type GenerationConfig struct {
	TextModel     string `yaml:"text_model"`
	ImageModel    string `yaml:"image_model"`
	EnhancePrompt bool   `yaml:"enhance_prompt"`
	DefaultAspect string `yaml:"default_aspect"`
	// The API key is not stored on disk; it lives in the OS keychain.
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the full persisted structure. config_version bumps when
// the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	General       GeneralConfig    `yaml:"general"`
	Board         BoardConfig      `yaml:"board"`
	Export        ExportConfig     `yaml:"export"`
	Generation    GenerationConfig `yaml:"generation"`
	Backend       BackendConfig    `yaml:"backend"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", EnableSync: false},
		Board: BoardConfig{
			GridSpacing:     20,
			GridOpacity:     0.3,
			GridColor:       "#888888",
			SnapToGrid:      false,
			BackgroundColor: "#FFFFFF",
		},
		Export:     ExportConfig{PixelRatio: 3},
		Generation: GenerationConfig{EnhancePrompt: true, DefaultAspect: "1:1"},
		Backend:    BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "IB_BACKEND_URL"
	EnvBackendTimeoutMs = "IB_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "IB_TLS_INSECURE"
	EnvTelemetryOptIn   = "IB_TELEMETRY_OPT_IN"
	EnvEnableSync       = "IB_ENABLE_SYNC"
	EnvGeminiAPIKey     = "IB_GEMINI_API_KEY"
	EnvLogLevel         = "IB_LOG_LEVEL"
	EnvLogFormat        = "IB_LOG_FORMAT"
	EnvLogSource        = "IB_LOG_SOURCE"
	EnvLogFile          = "IB_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "inkboard"
	keyringToken   = "backend_token"
	keyringAPIKey  = "gemini_api_key"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = &osKeyring{}

// SetTokenStore replaces the keyring backend and returns the previous
// one. Tests use it to avoid touching the real OS keychain.
func SetTokenStore(s TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = s
	return prev
}

// osKeyring implements TokenStore via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	return keyring.Get(service, service+"/"+key)
}
func (k *osKeyring) Set(service, key, value string) error {
	return keyring.Set(service, service+"/"+key, value)
}
func (k *osKeyring) Delete(service, key string) error {
	return keyring.Delete(service, service+"/"+key)
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Inkboard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Inkboard")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "inkboard")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file when present, applies defaults, and
// merges environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GeminiAPIKey resolves the generation key: the env override wins, then
// the OS keyring. An empty result means generation is unconfigured.
func GeminiAPIKey() string {
	if v := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); v != "" {
		return v
	}
	key, err := tokenStore.Get(keyringService, keyringAPIKey)
	if err != nil {
		return ""
	}
	return key
}

// SetGeminiAPIKey stores (or, with an empty value, removes) the key in
// the OS keyring.
func SetGeminiAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return tokenStore.Delete(keyringService, keyringAPIKey)
	}
	return tokenStore.Set(keyringService, keyringAPIKey, key)
}

// BackendToken reads the sync bearer token from the OS keyring.
func BackendToken() string {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil {
		return ""
	}
	return tok
}

// SetBackendToken stores the sync bearer token in the OS keyring.
func SetBackendToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return tokenStore.Delete(keyringService, keyringToken)
	}
	return tokenStore.Set(keyringService, keyringToken, token)
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from the file so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.EnableSync = src.General.EnableSync

	if src.Board.GridSpacing > 0 {
		dst.Board.GridSpacing = src.Board.GridSpacing
	}
	if src.Board.GridOpacity > 0 {
		dst.Board.GridOpacity = src.Board.GridOpacity
	}
	if src.Board.GridColor != "" {
		dst.Board.GridColor = src.Board.GridColor
	}
	dst.Board.SnapToGrid = src.Board.SnapToGrid
	if src.Board.BackgroundColor != "" {
		dst.Board.BackgroundColor = src.Board.BackgroundColor
	}

	if src.Export.PixelRatio > 0 {
		dst.Export.PixelRatio = src.Export.PixelRatio
	}
	if src.Export.WatermarkPath != "" {
		dst.Export.WatermarkPath = src.Export.WatermarkPath
	}

	if src.Generation.TextModel != "" {
		dst.Generation.TextModel = src.Generation.TextModel
	}
	if src.Generation.ImageModel != "" {
		dst.Generation.ImageModel = src.Generation.ImageModel
	}
	dst.Generation.EnhancePrompt = src.Generation.EnhancePrompt
	if src.Generation.DefaultAspect != "" {
		dst.Generation.DefaultAspect = src.Generation.DefaultAspect
	}

	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure

	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableSync)); v != "" {
		cfg.General.EnableSync = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "on" || s == "yes"
}
