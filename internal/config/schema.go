// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading and path template expansion.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure for crashintake.
type Config struct {
	App         AppConfig         `json:"app"`
	Evidence    EvidenceConfig    `json:"evidence"`
	Classifier  ClassifierConfig  `json:"classifier"`
	Corpus      CorpusConfig      `json:"corpus"`
	Attachments AttachmentsConfig `json:"attachments"`
	Session     SessionConfig     `json:"session"`
	Server      ServerConfig      `json:"server"`
	Logging     LoggingConfig     `json:"logging"`
	Events      EventsConfig      `json:"events"`
}

// AppConfig describes the host application.
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	UserDataDir string `json:"user_data_dir"` // Root for dumps and application logs
	TempDir     string `json:"temp_dir"`
}

// EvidenceConfig locates crash dumps and logs.
type EvidenceConfig struct {
	PrimaryDir    string `json:"primary_dir"`
	LegacyDir     string `json:"legacy_dir"`
	DumpExt       string `json:"dump_ext"`
	SidecarSuffix string `json:"sidecar_suffix"`
	LogDir        string `json:"log_dir"` // Application *.log files attached to reports
	Watch         *bool  `json:"watch"`   // Watch the primary dir for new dumps (default true)
}

// IsWatching returns whether the primary dump directory should be watched.
func (e EvidenceConfig) IsWatching() bool {
	return e.Watch == nil || *e.Watch
}

// ClassifierConfig configures crash classification.
type ClassifierConfig struct {
	// DependencyModulePattern is a case-insensitive regular expression
	// matched against loaded module base names.
	DependencyModulePattern string `json:"dependency_module_pattern"`
}

// CorpusConfig configures the known-issue corpus.
type CorpusConfig struct {
	URL             string `json:"url"`
	CachePath       string `json:"cache_path"`
	Timeout         string `json:"timeout"`
	RefreshInterval string `json:"refresh_interval"` // "0" disables periodic refresh
	MaxBytes        int64  `json:"max_bytes"`
}

// AttachmentsConfig configures archive assembly.
type AttachmentsConfig struct {
	Format      string `json:"format"` // zip or tar.zst
	Level       int    `json:"level"`
	TempDir     string `json:"temp_dir"`
	MaxFileSize int64  `json:"max_file_size"`
	ReapAfter   string `json:"reap_after"` // e.g. "7d"
}

// SessionConfig configures the report session.
type SessionConfig struct {
	Debounce string `json:"debounce"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
}

// EventsConfig configures the intent bus.
type EventsConfig struct {
	History EventHistoryConfig `json:"history"`
}

// EventHistoryConfig bounds the intent history.
type EventHistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// ParseDuration parses a duration string, returning a default if empty or
// invalid. A trailing "d" counts days.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := parseDurationWithDays(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// parseDurationWithDays parses a duration string that may include days (e.g., "7d").
func parseDurationWithDays(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

// CorpusTimeout returns the corpus fetch timeout.
func (c *Config) CorpusTimeout() time.Duration {
	return ParseDuration(c.Corpus.Timeout, 30*time.Second)
}

// CorpusRefreshInterval returns the periodic refresh interval; zero disables it.
func (c *Config) CorpusRefreshInterval() time.Duration {
	return ParseDuration(c.Corpus.RefreshInterval, 6*time.Hour)
}

// SessionDebounce returns the quiet period before a fingerprint recompute.
func (c *Config) SessionDebounce() time.Duration {
	return ParseDuration(c.Session.Debounce, time.Second)
}

// ReapAfter returns the age after which leftover temp files are removed.
func (c *Config) ReapAfter() time.Duration {
	return ParseDuration(c.Attachments.ReapAfter, 7*24*time.Hour)
}

// EventHistoryMaxAge returns how long intents are kept.
func (c *Config) EventHistoryMaxAge() time.Duration {
	return ParseDuration(c.Events.History.MaxAge, time.Hour)
}
