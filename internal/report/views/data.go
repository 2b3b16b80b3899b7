// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package views holds the quicktemplate views for report bodies.
// Regenerate report.qtpl.go with `qtc -dir=internal/report/views`.
package views

// Report is the flattened, display-ready content of a crash report.
type Report struct {
	Title            string
	Platform         string
	Architecture     string
	AppVersion       string
	Process          string
	ErrorMessage     string
	GameMode         string
	ExtensionVersion string
	StackTrace       string
	Attachments      string
	Steps            string
	ExpectedBehavior string
	ActualBehavior   string
	ReportedBy       string
}
