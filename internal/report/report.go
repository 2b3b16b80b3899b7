// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package report describes a crash report and renders its body.
package report

import (
	"io"
	"regexp"
	"strings"

	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/report/views"
)

// CrashTitle is the title given to reports started from a crash notice.
const CrashTitle = "Crash Report"

// SampleBug pre-fills the message of a bug report with the expected layout.
const SampleBug = "E.g.:\n" +
	"Summary: The mod downloads properly but when I try to install it nothing happens.\n" +
	"Expected Results: The mod is installed.\n" +
	"Actual Results: Nothing happens.\n" +
	"Steps to reproduce: Download a mod, then click Install inside the Actions menu."

// SampleSuggestion pre-fills the message of a feature suggestion.
const SampleSuggestion = "E.g.:\n" +
	"Summary: Please add a way to see the size of a mod on disk\n" +
	"Rationale: Space on my games partition is too limited so I want to delete the biggest, uninstalled mods.\n" +
	"Proposed Implementation: Add a column to the mods page that shows the size of the mod size."

// Where reports go.
const (
	IssuesURL  = "https://github.com/Nexus-Mods/Vortex/issues"
	SupportURL = "https://forums.nexusmods.com/index.php?/forum/4306-vortex-support"
	ReportURL  = "https://report.nexusmods.com/?tags=vortex"
)

// notAvailable stands in for empty fields in a rendered body.
const notAvailable = "N/A"

// Details is everything that goes into a report body.
type Details struct {
	Title             string                 `json:"title"`
	System            environment.SystemInfo `json:"system"`
	ErrorMessage      string                 `json:"error_message"`
	StackTrace        string                 `json:"stack_trace"`
	GameMode          string                 `json:"game_mode"`
	ExtensionVersion  string                 `json:"extension_version"`
	ExternalFileURL   string                 `json:"external_file_url"`
	Steps             string                 `json:"steps"`
	ExpectedBehavior  string                 `json:"expected_behavior"`
	ActualBehavior    string                 `json:"actual_behavior"`
	Attachments       []evidence.File        `json:"attachments"`
	Hash              string                 `json:"hash"`
	ReportedBy        string                 `json:"reported_by"`
	AdditionalContext string                 `json:"additional_context"`
}

// Render returns the markdown body for d.
func Render(d Details) string {
	return views.Body(d.view())
}

// RenderTo writes the markdown body for d to w.
func RenderTo(w io.Writer, d Details) {
	views.WriteBody(w, d.view())
}

func (d Details) view() *views.Report {
	steps := d.Steps
	if ctx := strings.TrimSpace(d.AdditionalContext); ctx != "" {
		if steps != "" {
			steps += "\n\n"
		}
		steps += ctx
	}
	return &views.Report{
		Title:            orNA(d.Title),
		Platform:         orNA(joinNonEmpty(" ", d.System.Platform, d.System.PlatformVersion)),
		Architecture:     orNA(d.System.Architecture),
		AppVersion:       orNA(d.System.AppVersion),
		Process:          orNA(d.System.Process),
		ErrorMessage:     orNA(d.ErrorMessage),
		GameMode:         orNA(d.GameMode),
		ExtensionVersion: orNA(d.ExtensionVersion),
		StackTrace:       orNA(d.StackTrace),
		Attachments:      orNA(d.attachmentLine()),
		Steps:            orNA(steps),
		ExpectedBehavior: orNA(d.ExpectedBehavior),
		ActualBehavior:   orNA(d.ActualBehavior),
		ReportedBy:       orNA(d.ReportedBy),
	}
}

// attachmentLine prefers the external URL, then lists attached file names.
func (d Details) attachmentLine() string {
	if d.ExternalFileURL != "" {
		return d.ExternalFileURL
	}
	names := make([]string, 0, len(d.Attachments))
	for _, f := range d.Attachments {
		names = append(names, f.Filename)
	}
	return strings.Join(names, ", ")
}

func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return notAvailable
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// ErrorDetails is what ExtractErrorDetails found. Missing sections are empty.
type ErrorDetails struct {
	Message string `json:"message"`
	Context string `json:"context"`
	Stack   string `json:"stack"`
}

var (
	messageSection = regexp.MustCompile("#### Message\n([^\n]+)")
	contextSection = regexp.MustCompile("(?s)#### Context\n```\n(.*?)```")
	stackSection   = regexp.MustCompile("(?s)#### Stack\n```\n(.*?)```")
)

// ExtractErrorDetails pulls the message, context, and stack out of an error
// report formatted by the host application.
func ExtractErrorDetails(formatted string) ErrorDetails {
	formatted = strings.ReplaceAll(formatted, "\r\n", "\n")
	return ErrorDetails{
		Message: firstGroup(messageSection, formatted),
		Context: firstGroup(contextSection, formatted),
		Stack:   firstGroup(stackSection, formatted),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
