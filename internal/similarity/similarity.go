// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package similarity scores fuzzy, substring-aware affinity between two strings.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Scorer returns a similarity score in the range 0..100.
type Scorer interface {
	Score(a, b string) int
}

// Bounds on the text that takes part in whole-string window alignment.
// Longer inputs are truncated; token alignment still sees every token.
const (
	maxShortRunes = 256
	maxLongRunes  = 4096
)

// PartialRatio scores the best-aligned substring match between two strings.
//
// Inputs are NFKC-normalised, lower-cased and stripped of punctuation. The
// score is the larger of two alignments: the shorter string slid across the
// longer one, and each token of the shorter side matched against its best
// token on the other side, weighted by token length. The second makes the
// score insensitive to word order and to suffixes glued onto identifiers.
type PartialRatio struct{}

// Score implements Scorer.
func (PartialRatio) Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	best := math.Max(windowScore(na, nb), tokenScore(strings.Fields(na), strings.Fields(nb)))
	return int(math.Round(best))
}

// Normalize folds a string to the form used for scoring.
func Normalize(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	folded := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(folded), " ")
}

// windowScore slides the shorter string over the longer one at word
// boundaries and returns the best ratio.
func windowScore(a, b string) float64 {
	s, l := []rune(a), []rune(b)
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) > maxShortRunes {
		s = s[:maxShortRunes]
	}
	if len(l) > maxLongRunes {
		l = l[:maxLongRunes]
	}
	if len(s) == 0 {
		return 0
	}
	if len(s) == len(l) {
		return ratio(string(s), string(l))
	}

	short := string(s)
	best := 0.0
	last := len(l) - len(s)
	for i := 0; i <= last; i++ {
		if i != 0 && i != last && l[i-1] != ' ' {
			continue
		}
		r := ratio(short, string(l[i:i+len(s)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// tokenScore aligns each token of the shorter side with its best partner.
func tokenScore(a, b []string) float64 {
	if runeCount(a) > runeCount(b) {
		a, b = b, a
	}

	var total, weight float64
	for _, ta := range a {
		best := 0.0
		for _, tb := range b {
			if r := tokenRatio(ta, tb); r > best {
				best = r
				if best == 100 {
					break
				}
			}
		}
		w := float64(len([]rune(ta)))
		total += best * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return total / weight
}

// tokenRatio is the partial ratio of two single tokens, trying every offset.
func tokenRatio(a, b string) float64 {
	s, l := []rune(a), []rune(b)
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) == 0 {
		return 0
	}

	short := string(s)
	best := 0.0
	for i := 0; i+len(s) <= len(l); i++ {
		if r := ratio(short, string(l[i:i+len(s)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// ratio is 100 * (1 - distance/len) for two strings of equal rune length.
func ratio(a, b string) float64 {
	n := len([]rune(a))
	if m := len([]rune(b)); m > n {
		n = m
	}
	if n == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(n))
}

func runeCount(tokens []string) int {
	n := 0
	for _, t := range tokens {
		n += len([]rune(t))
	}
	return n
}

var _ Scorer = PartialRatio{}
