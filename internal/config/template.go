// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// TemplateContext provides values for path templates such as
// "{{.UserDataDir}}/temp/dumps".
type TemplateContext struct {
	AppName       string
	UserConfigDir string
	HomeDir       string
	UserDataDir   string // Set from app.user_data_dir during expansion
	TempDir       string // Set from app.temp_dir during expansion
}

// NewTemplateContext returns a context populated from the current user.
func NewTemplateContext() *TemplateContext {
	ctx := &TemplateContext{}
	if dir, err := os.UserConfigDir(); err == nil {
		ctx.UserConfigDir = dir
	} else {
		ctx.UserConfigDir = os.TempDir()
	}
	if dir, err := os.UserHomeDir(); err == nil {
		ctx.HomeDir = dir
	}
	return ctx
}

// TemplateExpander handles Go text/template variable expansion in config values.
type TemplateExpander struct {
	funcMap template.FuncMap
}

// NewTemplateExpander creates a new template expander with built-in functions.
func NewTemplateExpander() *TemplateExpander {
	return &TemplateExpander{
		funcMap: template.FuncMap{
			"env":     os.Getenv,
			"replace": Replace,
			"upper":   strings.ToUpper,
			"lower":   strings.ToLower,
			"default": DefaultValue,
		},
	}
}

// Expand expands template variables in a string value.
func (e *TemplateExpander) Expand(value string, ctx *TemplateContext) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New("").Funcs(e.funcMap).Option("missingkey=error").Parse(value)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// expandPath expands a path value and cleans the result.
func (e *TemplateExpander) expandPath(field, value string, ctx *TemplateContext) (string, error) {
	if value == "" {
		return "", nil
	}
	v, err := e.Expand(value, ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return filepath.Clean(v), nil
}

// ExpandConfig expands path templates in the config and returns a copy.
// app.user_data_dir is expanded first, then app.temp_dir, so the other
// paths may refer to both.
func (e *TemplateExpander) ExpandConfig(cfg *Config, base *TemplateContext) (*Config, error) {
	expanded := *cfg
	ctx := *base
	ctx.AppName = cfg.App.Name

	var err error
	if expanded.App.UserDataDir, err = e.expandPath("app.user_data_dir", cfg.App.UserDataDir, &ctx); err != nil {
		return nil, err
	}
	ctx.UserDataDir = expanded.App.UserDataDir

	if expanded.App.TempDir, err = e.expandPath("app.temp_dir", cfg.App.TempDir, &ctx); err != nil {
		return nil, err
	}
	ctx.TempDir = expanded.App.TempDir

	paths := []struct {
		field string
		value *string
	}{
		{"evidence.primary_dir", &expanded.Evidence.PrimaryDir},
		{"evidence.legacy_dir", &expanded.Evidence.LegacyDir},
		{"evidence.log_dir", &expanded.Evidence.LogDir},
		{"corpus.cache_path", &expanded.Corpus.CachePath},
		{"attachments.temp_dir", &expanded.Attachments.TempDir},
	}
	for _, p := range paths {
		v, err := e.expandPath(p.field, *p.value, &ctx)
		if err != nil {
			return nil, err
		}
		*p.value = v
	}

	return &expanded, nil
}

// Replace replaces all occurrences of old with new in s. s comes last so the
// function works at the end of a pipeline.
func Replace(old, new, s string) string {
	return strings.ReplaceAll(s, old, new)
}

// DefaultValue returns defaultVal if s is empty.
func DefaultValue(defaultVal, s string) string {
	if s == "" {
		return defaultVal
	}
	return s
}
