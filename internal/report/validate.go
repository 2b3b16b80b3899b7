// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

// InputKind names a user-editable report field.
type InputKind string

const (
	InputTitle   InputKind = "title"
	InputContent InputKind = "content"
	InputURL     InputKind = "url"
)

// Violation reasons.
const (
	ReasonLength     = "length"
	ReasonInvalidURL = "invalid_url"
)

type constraint struct {
	min, max int
	checkURL bool
}

var constraints = map[InputKind]constraint{
	InputTitle:   {min: 10, max: 100},
	InputContent: {min: 50, max: 300},
	InputURL:     {min: 10, max: 300, checkURL: true},
}

// Violation describes why an input was rejected.
type Violation struct {
	Kind      InputKind `json:"kind"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	MinLength int       `json:"min_length,omitempty"`
	MaxLength int       `json:"max_length,omitempty"`
}

func (v *Violation) Error() string {
	return v.Message
}

// ValidateInput checks text against the constraints for kind. It returns nil
// when the input is acceptable or kind has no constraints. Lengths count
// runes.
func ValidateInput(kind InputKind, text string) *Violation {
	c, ok := constraints[kind]
	if !ok {
		return nil
	}
	if n := utf8.RuneCountInString(text); n < c.min || n > c.max {
		return &Violation{
			Kind:   kind,
			Reason: ReasonLength,
			Message: fmt.Sprintf("Your input for this %s needs to be at least %d characters and not exceed %d",
				kind, c.min, c.max),
			MinLength: c.min,
			MaxLength: c.max,
		}
	}
	if c.checkURL && !validURL(text) {
		return &Violation{
			Kind:    kind,
			Reason:  ReasonInvalidURL,
			Message: fmt.Sprintf("The attachment url %q is invalid", text),
		}
	}
	return nil
}

// validURL accepts absolute URLs.
func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
