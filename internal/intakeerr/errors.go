// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package intakeerr defines the failure taxonomy shared by the intake components.
//
// Only KindAssemblyFailed is ever returned across a component boundary. The
// other kinds exist so that absorbed failures are logged with a consistent
// classification.
package intakeerr

import (
	"errors"
	"fmt"
)

// Kind represents the category of failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindEvidenceUnavailable
	KindClassificationAmbiguous
	KindCorpusUnavailable
	KindAssemblyFailed
)

func (k Kind) String() string {
	switch k {
	case KindEvidenceUnavailable:
		return "evidence_unavailable"
	case KindClassificationAmbiguous:
		return "classification_ambiguous"
	case KindCorpusUnavailable:
		return "corpus_unavailable"
	case KindAssemblyFailed:
		return "assembly_failed"
	default:
		return "unknown"
	}
}

// Error is the error type carried by intake failures.
type Error struct {
	Kind    Kind
	Op      string // e.g. "attach.Assemble"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrEvidenceUnavailable     = &Error{Kind: KindEvidenceUnavailable}
	ErrClassificationAmbiguous = &Error{Kind: KindClassificationAmbiguous}
	ErrCorpusUnavailable       = &Error{Kind: KindCorpusUnavailable}
	ErrAssemblyFailed          = &Error{Kind: KindAssemblyFailed}
)

// New creates an error of the given kind.
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
