// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// ErrNotFound is returned by FindConfig when no config file exists.
var ErrNotFound = errors.New("config file not found (looked for crashintake.hjson, crashintake.json)")

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes HJSON config data.
func (l *Loader) Parse(data []byte) (*Config, error) {
	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied and path
// templates expanded.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	return finish(&Config{})
}

// Resolve loads path, or the file found by FindConfig when path is empty.
// With no path and no file, the defaults are returned.
func (l *Loader) Resolve(ctx context.Context, path string) (*Config, string, error) {
	if path == "" {
		found, err := l.FindConfig()
		if errors.Is(err, ErrNotFound) {
			cfg, err := Default()
			return cfg, "", err
		}
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := l.LoadWithDefaults(ctx, path)
	return cfg, path, err
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	expanded, err := NewTemplateExpander().ExpandConfig(cfg, NewTemplateContext())
	if err != nil {
		return nil, fmt.Errorf("expand config: %w", err)
	}
	return expanded, nil
}

// FindConfig searches for a config file in the current directory.
// It looks for crashintake.hjson first, then crashintake.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"crashintake.hjson",
		"crashintake.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", ErrNotFound
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	// App defaults
	if cfg.App.Name == "" {
		cfg.App.Name = "crashintake"
	}
	if cfg.App.UserDataDir == "" {
		cfg.App.UserDataDir = "{{.UserConfigDir}}/{{.AppName}}"
	}
	if cfg.App.TempDir == "" {
		cfg.App.TempDir = "{{.UserDataDir}}/temp"
	}

	// Evidence defaults
	if cfg.Evidence.PrimaryDir == "" {
		cfg.Evidence.PrimaryDir = "{{.TempDir}}/dumps"
	}
	if cfg.Evidence.LegacyDir == "" {
		cfg.Evidence.LegacyDir = "{{.TempDir}}/Crashes/reports"
	}
	if cfg.Evidence.DumpExt == "" {
		cfg.Evidence.DumpExt = ".dmp"
	}
	if cfg.Evidence.SidecarSuffix == "" {
		cfg.Evidence.SidecarSuffix = ".log"
	}
	if cfg.Evidence.LogDir == "" {
		cfg.Evidence.LogDir = "{{.UserDataDir}}"
	}

	// Classifier defaults
	if cfg.Classifier.DependencyModulePattern == "" {
		cfg.Classifier.DependencyModulePattern = `msxml[56]\.dll`
	}

	// Corpus defaults
	if cfg.Corpus.URL == "" {
		cfg.Corpus.URL = "https://raw.githubusercontent.com/Nexus-Mods/Vortex-Backend/main/out/issues_report.json"
	}
	if cfg.Corpus.CachePath == "" {
		cfg.Corpus.CachePath = "{{.TempDir}}/issues_report.json"
	}
	if cfg.Corpus.Timeout == "" {
		cfg.Corpus.Timeout = "30s"
	}
	if cfg.Corpus.RefreshInterval == "" {
		cfg.Corpus.RefreshInterval = "6h"
	}
	if cfg.Corpus.MaxBytes == 0 {
		cfg.Corpus.MaxBytes = 32 << 20
	}

	// Attachment defaults
	if cfg.Attachments.Format == "" {
		cfg.Attachments.Format = "zip"
	}
	if cfg.Attachments.Level == 0 {
		cfg.Attachments.Level = 6
	}
	if cfg.Attachments.TempDir == "" {
		cfg.Attachments.TempDir = "{{.TempDir}}"
	}
	if cfg.Attachments.MaxFileSize == 0 {
		cfg.Attachments.MaxFileSize = 1 << 30
	}
	if cfg.Attachments.ReapAfter == "" {
		cfg.Attachments.ReapAfter = "7d"
	}

	// Session defaults
	if cfg.Session.Debounce == "" {
		cfg.Session.Debounce = "1s"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7341
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Events defaults
	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 1000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}
}
