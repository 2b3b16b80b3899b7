// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint computes the identity key of a reported failure.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator joins the canonical message and stack trace before hashing.
const Separator = "\n"

// Generate returns the hex SHA-256 of the canonical message and stack trace.
// It returns false when both fields are blank; an empty key must never be used
// for deduplication.
func Generate(message, stack string) (string, bool) {
	m := canonical(message)
	s := canonical(stack)
	if m == "" && s == "" {
		return "", false
	}

	sum := sha256.Sum256([]byte(m + Separator + s))
	return hex.EncodeToString(sum[:]), true
}

// Valid reports whether fp looks like a value produced by Generate.
func Valid(fp string) bool {
	if len(fp) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(fp)
	return err == nil
}

func canonical(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
