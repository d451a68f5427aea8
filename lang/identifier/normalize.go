// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package identifier derives Java type identifiers from arbitrary C++ file
// base names.
package identifier

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultIdentifier is returned when nothing usable survives normalization.
	DefaultIdentifier = "DefaultClassName"
	// InvalidStartPrefix is prepended when the result does not start with a letter or underscore.
	InvalidStartPrefix = "Generated"
)

var (
	delimiterRe = regexp.MustCompile(`[-_\s]+`)
	invalidRe   = regexp.MustCompile(`[^A-Za-z0-9_]`)
	validRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Normalizer turns a name into a PascalCase identifier. The output always
// matches ^[A-Za-z_][A-Za-z0-9_]*$ and Normalize is idempotent.
type Normalizer struct {
	seg *Segmenter
}

// NewNormalizer returns a Normalizer using seg for case-less names; nil means
// the embedded dictionary.
func NewNormalizer(seg *Segmenter) *Normalizer {
	if seg == nil {
		seg = DefaultSegmenter()
	}
	return &Normalizer{seg: seg}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize runs name through the default Normalizer.
func Normalize(name string) string {
	return defaultNormalizer.Normalize(name)
}

// FromFilename normalizes the base name of path with its extension removed.
func FromFilename(path string) string {
	return defaultNormalizer.FromFilename(path)
}

// IsValid reports whether id is a legal Java identifier under the ASCII rules used here.
func IsValid(id string) bool {
	return validRe.MatchString(id)
}

func (n *Normalizer) FromFilename(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	return n.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
}

func (n *Normalizer) Normalize(name string) string {
	s := normalizeDelimiters(name)
	s = joinCapitalized(n.segments(s))
	s = invalidRe.ReplaceAllString(s, "")
	if s == "" {
		return DefaultIdentifier
	}
	if !startsValid(s) {
		s = InvalidStartPrefix + s
	}
	return s
}

// normalizeDelimiters collapses runs of hyphens, underscores and whitespace
// into single spaces.
func normalizeDelimiters(s string) string {
	return strings.TrimSpace(delimiterRe.ReplaceAllString(s, " "))
}

func (n *Normalizer) segments(s string) []string {
	switch {
	case s == "":
		return nil
	case strings.Contains(s, " "):
		return strings.Fields(s)
	case hasUpper(s):
		return caseTokens(s)
	default:
		return n.dictionarySegments(s)
	}
}

// dictionarySegments handles names without case information: letter runs are
// split into words, digit runs are kept, a trailing digit suffix stays last.
func (n *Normalizer) dictionarySegments(s string) []string {
	base, suffix := splitDigitSuffix(s)
	var out []string
	for _, run := range alnumRuns(base) {
		if isDigit(run[0]) {
			out = append(out, run)
			continue
		}
		out = append(out, n.seg.Split(run)...)
	}
	if suffix != "" {
		out = append(out, suffix)
	}
	return out
}

// joinCapitalized upper-cases the first letter of every segment, then
// re-tokenizes the joined string once more so that already-normalized input
// maps to itself.
func joinCapitalized(segs []string) string {
	var sb strings.Builder
	for _, seg := range segs {
		sb.WriteString(capFirst(seg))
	}
	var out strings.Builder
	for _, tok := range caseTokens(sb.String()) {
		out.WriteString(capFirst(tok))
	}
	return out.String()
}

// caseTokens splits on case transitions and letter/digit boundaries:
// "fooBar123" -> foo Bar 123, "HTTPServer" -> HTTP Server. Bytes that are
// not ASCII letters or digits are dropped.
func caseTokens(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isDigit(c):
			j := scan(s, i, isDigit)
			toks = append(toks, s[i:j])
			i = j
		case isLower(c):
			j := scan(s, i, isLower)
			toks = append(toks, s[i:j])
			i = j
		case isUpper(c):
			j := scan(s, i, isUpper)
			if j < len(s) && isLower(s[j]) {
				if j-i > 1 {
					toks = append(toks, s[i:j-1])
				}
				k := scan(s, j, isLower)
				toks = append(toks, s[j-1:k])
				i = k
			} else {
				toks = append(toks, s[i:j])
				i = j
			}
		default:
			i++
		}
	}
	return toks
}

func splitDigitSuffix(s string) (string, string) {
	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	if i == 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// alnumRuns returns the maximal runs of ASCII letters and of digits in s.
func alnumRuns(s string) []string {
	var runs []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isDigit(c):
			j := scan(s, i, isDigit)
			runs = append(runs, s[i:j])
			i = j
		case isLetter(c):
			j := scan(s, i, isLetter)
			runs = append(runs, s[i:j])
			i = j
		default:
			i++
		}
	}
	return runs
}

func scan(s string, i int, pred func(byte) bool) int {
	for i < len(s) && pred(s[i]) {
		i++
	}
	return i
}

func capFirst(s string) string {
	if s == "" || !isLower(s[0]) {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func hasUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if isUpper(s[i]) {
			return true
		}
	}
	return false
}

func startsValid(s string) bool {
	return s != "" && (isLetter(s[0]) || s[0] == '_')
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLower(c byte) bool  { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLetter(c byte) bool { return isLower(c) || isUpper(c) }
