// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity. Call it after defaults are applied.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateRequired(cfg, errs)
	v.validateServer(cfg, errs)
	v.validateEvidence(cfg, errs)
	v.validateClassifier(cfg, errs)
	v.validateCorpus(cfg, errs)
	v.validateAttachments(cfg, errs)
	v.validateLogging(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateRequired(cfg *Config, errs *ValidationError) {
	if cfg.Evidence.PrimaryDir == "" {
		errs.Add("evidence.primary_dir", "is required")
	}
	if cfg.Corpus.CachePath == "" {
		errs.Add("corpus.cache_path", "is required")
	}
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs.Add("server.port", "must be between 0 and 65535")
	}
}

func (v *Validator) validateEvidence(cfg *Config, errs *ValidationError) {
	if ext := cfg.Evidence.DumpExt; ext != "" && !strings.HasPrefix(ext, ".") {
		errs.Add("evidence.dump_ext", fmt.Sprintf("invalid extension '%s', must start with '.'", ext))
	}
	if cfg.Evidence.SidecarSuffix != "" && cfg.Evidence.SidecarSuffix == cfg.Evidence.DumpExt {
		errs.Add("evidence.sidecar_suffix", "must differ from evidence.dump_ext")
	}
}

func (v *Validator) validateClassifier(cfg *Config, errs *ValidationError) {
	if p := cfg.Classifier.DependencyModulePattern; p != "" {
		if _, err := regexp.Compile(p); err != nil {
			errs.Add("classifier.dependency_module_pattern", fmt.Sprintf("invalid pattern: %s", err))
		}
	}
}

func (v *Validator) validateCorpus(cfg *Config, errs *ValidationError) {
	if cfg.Corpus.URL != "" {
		u, err := url.Parse(cfg.Corpus.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.Add("corpus.url", fmt.Sprintf("invalid url '%s', must be an http(s) URL", cfg.Corpus.URL))
		}
	}
	if cfg.Corpus.MaxBytes < 0 {
		errs.Add("corpus.max_bytes", "must not be negative")
	}
}

func (v *Validator) validateAttachments(cfg *Config, errs *ValidationError) {
	if cfg.Attachments.Format != "" {
		validFormats := map[string]bool{
			"zip":     true,
			"tar.zst": true,
		}
		if !validFormats[cfg.Attachments.Format] {
			errs.Add("attachments.format", fmt.Sprintf("invalid format '%s', must be one of: zip, tar.zst", cfg.Attachments.Format))
		}
	}
	if cfg.Attachments.Level < 1 || cfg.Attachments.Level > 9 {
		errs.Add("attachments.level", "must be between 1 and 9")
	}
	if cfg.Attachments.MaxFileSize < 0 {
		errs.Add("attachments.max_file_size", "must not be negative")
	}
}

func (v *Validator) validateLogging(cfg *Config, errs *ValidationError) {
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.Logging.Level] {
			errs.Add("logging.level", fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", cfg.Logging.Level))
		}
	}

	if cfg.Logging.Format != "" {
		validFormats := map[string]bool{
			"json": true,
			"text": true,
		}
		if !validFormats[cfg.Logging.Format] {
			errs.Add("logging.format", fmt.Sprintf("invalid format '%s', must be one of: json, text", cfg.Logging.Format))
		}
	}

	if cfg.Events.History.MaxEvents < 0 {
		errs.Add("events.history.max_events", "must not be negative")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	durations := []struct {
		field    string
		value    string
		positive bool
	}{
		{"session.debounce", cfg.Session.Debounce, true},
		{"corpus.timeout", cfg.Corpus.Timeout, true},
		{"corpus.refresh_interval", cfg.Corpus.RefreshInterval, false},
		{"attachments.reap_after", cfg.Attachments.ReapAfter, false},
		{"events.history.max_age", cfg.Events.History.MaxAge, false},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := parseDurationWithDays(d.value)
		if err != nil {
			errs.Add(d.field, fmt.Sprintf("invalid duration format: %s", err))
			continue
		}
		if parsed < 0 || (d.positive && parsed == 0) {
			errs.Add(d.field, "must be positive")
		}
	}
}
