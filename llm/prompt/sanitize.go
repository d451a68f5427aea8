/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package prompt

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLines = 50
	DefaultMaxChars = 5000

	EmptyLogPlaceholder = "[No compilation output]"
	TruncationMarker    = "\n... [Log Truncated]"
)

// Sanitizer bounds a compiler log before it is embedded in a prompt. The
// result never exceeds MaxLines lines or MaxChars characters, marker included.
type Sanitizer struct {
	MaxLines int
	MaxChars int
}

// NewSanitizer keeps positive limits as given; zero or negative selects the
// defaults.
func NewSanitizer(maxLines, maxChars int) Sanitizer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return Sanitizer{MaxLines: maxLines, MaxChars: maxChars}
}

// SanitizeLog applies the default limits.
func SanitizeLog(raw string) string {
	return NewSanitizer(DefaultMaxLines, DefaultMaxChars).Sanitize(raw)
}

func (s Sanitizer) Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return firstRunes(EmptyLogPlaceholder, s.MaxChars)
	}
	lines := splitLines(raw)
	if len(lines) > s.MaxLines {
		lines = lines[:s.MaxLines]
	}
	out := strings.Join(lines, "\n")
	if utf8.RuneCountInString(out) <= s.MaxChars {
		return out
	}

	budget := s.MaxChars - utf8.RuneCountInString(TruncationMarker)
	// no room for the marker: plain clip
	if budget <= 0 || s.MaxLines < 2 {
		return firstRunes(out, s.MaxChars)
	}
	head := firstRunes(out, budget)
	// the marker starts a new line
	if strings.Count(head, "\n")+2 > s.MaxLines {
		if i := strings.LastIndexByte(head, '\n'); i >= 0 {
			head = head[:i]
		} else {
			head = ""
		}
	}
	return head + TruncationMarker
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
