// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package environment answers questions about the running host: which shared
// modules are loaded and what platform the process runs on.
package environment

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// Probe queries the host for a loaded shared module.
type Probe interface {
	// ModuleLoaded reports whether a module whose base name matches pattern
	// (a case-insensitive regular expression) is loaded in this process.
	ModuleLoaded(ctx context.Context, pattern string) (bool, error)
}

// SystemInfo describes the host for report bodies.
type SystemInfo struct {
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Architecture    string `json:"architecture"`
	AppVersion      string `json:"app_version"`
	Process         string `json:"process"`
}

// Collect gathers system information for the current process.
func Collect(appVersion string) SystemInfo {
	return SystemInfo{
		Platform:        runtime.GOOS,
		PlatformVersion: platformVersion(),
		Architecture:    runtime.GOARCH,
		AppVersion:      appVersion,
		Process:         processName(os.Getpid()),
	}
}

func processName(pid int) string {
	p, err := ps.FindProcess(pid)
	if err == nil && p != nil {
		return p.Executable()
	}
	return filepath.Base(os.Args[0])
}

// HostProbe inspects the modules mapped into the current process.
type HostProbe struct {
	list func(ctx context.Context) ([]string, error)
}

// NewProbe returns the probe for the current platform.
func NewProbe() *HostProbe {
	return &HostProbe{list: loadedModules}
}

// ModuleLoaded implements Probe.
func (p *HostProbe) ModuleLoaded(ctx context.Context, pattern string) (bool, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	modules, err := p.list(ctx)
	if err != nil {
		return false, err
	}
	return matchAny(re, modules), nil
}

// Static is a Probe with a fixed answer.
type Static struct {
	Modules []string
}

// ModuleLoaded implements Probe.
func (s Static) ModuleLoaded(ctx context.Context, pattern string) (bool, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return matchAny(re, s.Modules), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid module pattern %q: %w", pattern, err)
	}
	return re, nil
}

func matchAny(re *regexp.Regexp, modules []string) bool {
	for _, m := range modules {
		if re.MatchString(m) {
			return true
		}
	}
	return false
}

// parseMaps returns the distinct base names of file-backed mappings in a
// /proc/<pid>/maps listing.
func parseMaps(data []byte) []string {
	seen := make(map[string]bool)
	var names []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		// address perms offset dev inode pathname
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		path := strings.Join(fields[5:], " ")
		if !strings.HasPrefix(path, "/") {
			continue
		}
		path = strings.TrimSuffix(path, " (deleted)")
		name := filepath.Base(path)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

var (
	_ Probe = (*HostProbe)(nil)
	_ Probe = Static{}
)
