// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package classify maps exception codes from sidecar logs to known failure
// categories.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/metrics"
)

// Category is the closed set of failure categories.
type Category int

const (
	Unrecognized Category = iota
	RuntimeLibraryFault
	OutOfMemory
	ApplicationDependencyFault
)

func (c Category) String() string {
	switch c {
	case RuntimeLibraryFault:
		return "runtime_library_fault"
	case OutOfMemory:
		return "out_of_memory"
	case ApplicationDependencyFault:
		return "application_dependency_fault"
	default:
		return "unrecognized"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Signature pairs an exception code with its category.
type Signature struct {
	Code     string   `json:"code"`
	Category Category `json:"category"`
}

// Signatures is the fixed table of known exception codes.
var Signatures = []Signature{
	{Code: "e0000001", Category: ApplicationDependencyFault},
	{Code: "e0000002", Category: ApplicationDependencyFault},
	{Code: "e0434f4d", Category: RuntimeLibraryFault},
	{Code: "e0000008", Category: OutOfMemory},
}

var signatureIndex = func() map[string]Category {
	m := make(map[string]Category, len(Signatures))
	for _, s := range Signatures {
		m[s.Code] = s.Category
	}
	return m
}()

// Lookup returns the category for a code, compared case-insensitively.
func Lookup(code string) (Category, bool) {
	c, ok := signatureIndex[strings.ToLower(strings.TrimSpace(code))]
	return c, ok
}

// DefaultDependencyModule matches the module that confirms an
// ApplicationDependencyFault.
const DefaultDependencyModule = `msxml[56]\.dll`

// Result is the outcome of a classification.
type Result struct {
	Category Category `json:"category"`
	Code     string   `json:"code,omitempty"`  // Known code that decided the category
	Codes    []string `json:"codes,omitempty"` // Every code found, in scan order
	// Ambiguous is set when a dependency code was found but the module
	// precondition did not hold.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Known reports whether the result names a recognised failure.
func (r Result) Known() bool {
	return r.Category != Unrecognized
}

// Config holds classifier settings.
type Config struct {
	SidecarSuffix    string
	DependencyModule string
}

// Classifier reads sidecar logs and decides a failure category.
type Classifier struct {
	fs      hostfs.FS
	probe   environment.Probe
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a classifier.
func New(fsys hostfs.FS, probe environment.Probe, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Classifier {
	if cfg.SidecarSuffix == "" {
		cfg.SidecarSuffix = ".log"
	}
	if cfg.DependencyModule == "" {
		cfg.DependencyModule = DefaultDependencyModule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{fs: fsys, probe: probe, cfg: cfg, logger: logger, metrics: m}
}

// Classify reads the sidecar of every dump and returns the first known code
// in scan order. It never fails; any problem yields Unrecognized.
func (c *Classifier) Classify(ctx context.Context, dumpPaths []string) Result {
	res := c.classify(ctx, dumpPaths)
	c.metrics.Classified(res.Category.String())
	return res
}

func (c *Classifier) classify(ctx context.Context, dumpPaths []string) Result {
	perDump := make([][]string, len(dumpPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, dump := range dumpPaths {
		g.Go(func() error {
			sidecar := dump + c.cfg.SidecarSuffix
			data, err := c.fs.ReadFile(gctx, sidecar)
			if err != nil {
				c.logger.Debug("sidecar unreadable", "path", sidecar, "error", err)
				return nil
			}
			perDump[i] = ExtractCodes(string(data))
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for _, codes := range perDump {
		res.Codes = append(res.Codes, codes...)
	}
	if len(res.Codes) == 0 {
		return res
	}

	for _, code := range res.Codes {
		category, ok := Lookup(code)
		if !ok {
			continue
		}
		if category == ApplicationDependencyFault && !c.dependencyLoaded(ctx) {
			e := intakeerr.New(intakeerr.KindClassificationAmbiguous, "classify.Classify",
				"dependency module not loaded", nil)
			c.logger.Warn("classification ambiguous", "code", code, "module", c.cfg.DependencyModule, "error", e)
			res.Ambiguous = true
			res.Code = code
			return res
		}
		res.Category = category
		res.Code = code
		return res
	}
	return res
}

func (c *Classifier) dependencyLoaded(ctx context.Context) bool {
	if c.probe == nil {
		return false
	}
	loaded, err := c.probe.ModuleLoaded(ctx, c.cfg.DependencyModule)
	if err != nil {
		c.logger.Warn("module probe failed", "module", c.cfg.DependencyModule, "error", err)
		return false
	}
	return loaded
}

const codePrefix = "Exception code"

// ExtractCodes returns the values of every "Exception code: <value>" line.
func ExtractCodes(text string) []string {
	var codes []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, codePrefix) {
			continue
		}
		_, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value != "" {
			codes = append(codes, value)
		}
	}
	return codes
}
