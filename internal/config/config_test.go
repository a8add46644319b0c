/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

type stubStore struct {
	values map[string]string
}

func newStubStore() *stubStore { return &stubStore{values: map[string]string{}} }

func (s *stubStore) Get(service, key string) (string, error) {
	v, ok := s.values[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (s *stubStore) Set(service, key, value string) error {
	s.values[service+"/"+key] = value
	return nil
}
func (s *stubStore) Delete(service, key string) error {
	delete(s.values, service+"/"+key)
	return nil
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.ConfigVersion != 1 {
		t.Fatalf("config version: %d", cfg.ConfigVersion)
	}
	if cfg.Board.GridSpacing != 20 || cfg.Board.GridOpacity != 0.3 {
		t.Fatalf("grid defaults: %+v", cfg.Board)
	}
	if cfg.Export.PixelRatio != 3 {
		t.Fatalf("pixel ratio default: %v", cfg.Export.PixelRatio)
	}
	if cfg.Generation.DefaultAspect != "1:1" || !cfg.Generation.EnhancePrompt {
		t.Fatalf("generation defaults: %+v", cfg.Generation)
	}
}

func TestMergeIntoKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	if err := yaml.Unmarshal([]byte("board:\n  grid_color: \"#222222\"\n"), &src); err != nil {
		t.Fatal(err)
	}
	mergeInto(&dst, &src)
	if dst.Board.GridColor != "#222222" {
		t.Fatalf("grid color not merged: %s", dst.Board.GridColor)
	}
	if dst.Board.GridSpacing != 20 {
		t.Fatalf("grid spacing should keep default, got %v", dst.Board.GridSpacing)
	}
	if dst.Backend.BaseURL != "http://localhost:8080" {
		t.Fatalf("backend url should keep default, got %s", dst.Backend.BaseURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvBackendURL, "https://sync.example.com")
	t.Setenv(EnvEnableSync, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Backend.BaseURL != "https://sync.example.com" {
		t.Fatalf("backend url: %s", cfg.Backend.BaseURL)
	}
	if !cfg.General.EnableSync {
		t.Fatal("enable_sync override not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level: %s", cfg.Logging.Level)
	}
}

func TestGeminiAPIKeyPrefersEnv(t *testing.T) {
	prev := SetTokenStore(newStubStore())
	defer SetTokenStore(prev)

	if err := SetGeminiAPIKey("from-keyring"); err != nil {
		t.Fatal(err)
	}
	if got := GeminiAPIKey(); got != "from-keyring" {
		t.Fatalf("keyring key: %q", got)
	}
	t.Setenv(EnvGeminiAPIKey, "from-env")
	if got := GeminiAPIKey(); got != "from-env" {
		t.Fatalf("env key should win: %q", got)
	}
}

func TestSetGeminiAPIKeyEmptyDeletes(t *testing.T) {
	store := newStubStore()
	prev := SetTokenStore(store)
	defer SetTokenStore(prev)

	if err := SetGeminiAPIKey("abc"); err != nil {
		t.Fatal(err)
	}
	if err := SetGeminiAPIKey(""); err != nil {
		t.Fatal(err)
	}
	if got := GeminiAPIKey(); got != "" {
		t.Fatalf("key should be gone, got %q", got)
	}
}

func TestBackendTokenRoundTrip(t *testing.T) {
	prev := SetTokenStore(newStubStore())
	defer SetTokenStore(prev)

	if err := SetBackendToken("tok-123"); err != nil {
		t.Fatal(err)
	}
	if got := BackendToken(); got != "tok-123" {
		t.Fatalf("token: %q", got)
	}
}
