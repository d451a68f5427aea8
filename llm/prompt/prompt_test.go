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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"java fence", "Here:\n```java\npublic class A {}\n```\nDone", "public class A {}"},
		{"upper tag", "```JAVA\nclass B {}\n```", "class B {}"},
		{"bare fence", "```\n  int x;  \n```", "int x;"},
		{"first fence wins", "```java\nA\n``` and ```java\nB\n```", "A"},
		{"no fence", "  public class C {}\n", "public class C {}"},
		{"empty fence", "```java\n```", ""},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.in))
		})
	}
}

func TestSanitizeEmpty(t *testing.T) {
	assert.Equal(t, EmptyLogPlaceholder, SanitizeLog(""))
	assert.Equal(t, EmptyLogPlaceholder, SanitizeLog("\n\n"))
}

func TestSanitizeKeepsShortLog(t *testing.T) {
	in := "A.java:3: error: ';' expected\n1 error\n"
	assert.Equal(t, "A.java:3: error: ';' expected\n1 error", SanitizeLog(in))
}

func TestSanitizeLineLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 80; i++ {
		lines = append(lines, "line")
	}
	out := NewSanitizer(50, 5000).Sanitize(strings.Join(lines, "\n"))
	assert.Equal(t, 50, strings.Count(out, "\n")+1)
	assert.NotContains(t, out, TruncationMarker)
}

func TestSanitizeCharLimit(t *testing.T) {
	in := strings.Repeat("x", 6000)
	out := SanitizeLog(in)
	assert.True(t, strings.HasSuffix(out, TruncationMarker))
	assert.Equal(t, DefaultMaxChars, utf8.RuneCountInString(out))
}

func TestSanitizeBounds(t *testing.T) {
	s := NewSanitizer(5, 100)
	inputs := []string{
		strings.Repeat("é", 500),
		strings.Repeat("error: something\n", 40),
		strings.Repeat("a\r\nbb\rccc\n", 30),
		strings.Repeat(strings.Repeat("z", 30)+"\n", 5),
	}
	for _, in := range inputs {
		out := s.Sanitize(in)
		assert.NotEmpty(t, out)
		assert.LessOrEqual(t, strings.Count(out, "\n")+1, s.MaxLines, "%q", out)
		assert.LessOrEqual(t, utf8.RuneCountInString(out), s.MaxChars, "%q", out)
	}
}

func TestNewSanitizerDefaults(t *testing.T) {
	s := NewSanitizer(0, -1)
	assert.Equal(t, DefaultMaxLines, s.MaxLines)
	assert.Equal(t, DefaultMaxChars, s.MaxChars)
	s = NewSanitizer(1, 3)
	assert.Equal(t, 1, s.MaxLines)
	assert.Equal(t, 3, s.MaxChars)
}

func TestSanitizeTinyLimits(t *testing.T) {
	out := NewSanitizer(1, 5000).Sanitize("a\nb\nc\nd")
	assert.Equal(t, "a", out)

	out = NewSanitizer(50, 20).Sanitize(strings.Repeat("x", 200))
	assert.Equal(t, strings.Repeat("x", 20), out)

	out = NewSanitizer(1, 3).Sanitize("abcdef\nghi")
	assert.Equal(t, "abc", out)
	assert.Equal(t, "[No", NewSanitizer(1, 3).Sanitize(""))

	for _, lim := range [][2]int{{1, 1}, {1, 64}, {2, 21}, {2, 22}, {3, 30}} {
		s := NewSanitizer(lim[0], lim[1])
		out := s.Sanitize(strings.Repeat("error: line\n", 10))
		assert.LessOrEqual(t, strings.Count(out, "\n")+1, lim[0], "%v %q", lim, out)
		assert.LessOrEqual(t, utf8.RuneCountInString(out), lim[1], "%v %q", lim, out)
	}
}

func TestInitialPrompt(t *testing.T) {
	b := NewBuilder(0)
	p := b.Initial(InitialRequest{
		Identifier:   "LegacyParser",
		Source:       "int main() { return 0; }",
		Headers:      map[string]string{"b.h": "int b();", "a.h": "int a();"},
		Instructions: "  keep the globals static  ",
		Hints:        []string{"- Use Java classes for C++ classes."},
	})
	assert.Contains(t, p, "Java 17")
	assert.Contains(t, p, SourceHeading+"\nint main() { return 0; }")
	assert.Contains(t, p, `named exactly "LegacyParser"`)
	assert.Contains(t, p, "exactly one top-level public class")
	assert.Contains(t, p, "import statements at the very top")
	assert.Contains(t, p, HintsHeading+"\n- Use Java classes for C++ classes.")
	assert.Contains(t, p, InstructionHeading+"\nkeep the globals static")
	ia := strings.Index(p, "// HEADER: a.h\nint a();")
	ib := strings.Index(p, "// HEADER: b.h\nint b();")
	require.True(t, ia > 0 && ib > ia, "headers are sorted by name")
	assert.True(t, strings.Index(p, HeadersHeading) < strings.Index(p, SourceHeading))
}

func TestInitialPromptOmitsEmptySections(t *testing.T) {
	p := NewBuilder(21).Initial(InitialRequest{Identifier: "A", Source: "x"})
	assert.Contains(t, p, "Java 21")
	assert.NotContains(t, p, HeadersHeading)
	assert.NotContains(t, p, HintsHeading)
	assert.NotContains(t, p, InstructionHeading)
}

func TestCorrectivePrompt(t *testing.T) {
	b := NewBuilder(17)
	first := b.Corrective(CorrectiveRequest{Identifier: "A", Attempt: 0, Code: "class A {}", Log: "err0"})
	assert.Contains(t, first, "===== CURRENT JAVA CODE (Attempt 1) =====\nclass A {}")
	assert.Contains(t, first, "===== CURRENT COMPILATION ERRORS (Attempt 1) =====\nerr0")
	assert.Contains(t, first, "first attempt to fix")
	assert.NotContains(t, first, "PREVIOUS COMPILATION ERRORS (Attempt")

	second := b.Corrective(CorrectiveRequest{Identifier: "A", Attempt: 1, Code: "class A {}", Log: "err1", PreviousLog: "err0"})
	assert.Contains(t, second, "===== CURRENT COMPILATION ERRORS (Attempt 2) =====\nerr1")
	assert.Contains(t, second, "===== PREVIOUS COMPILATION ERRORS (Attempt 1) =====\nerr0")
	assert.Contains(t, second, "DO NOT repeat the same mistakes")
	assert.Contains(t, second, `exactly one top-level public class named "A"`)
}

func TestLoadSystem(t *testing.T) {
	p, err := LoadSystem("  inline  ", "", SystemData{})
	require.NoError(t, err)
	assert.Equal(t, "inline", p.String())

	p, err = LoadSystem("", "", SystemData{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, p.String())

	dir := t.TempDir()
	plain := filepath.Join(dir, "system.txt")
	require.NoError(t, os.WriteFile(plain, []byte("from file\n"), 0o644))
	p, err = LoadSystem("", plain, SystemData{})
	require.NoError(t, err)
	assert.Equal(t, "from file", p.String())

	tmpl := filepath.Join(dir, "system.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("Target Java {{.JavaRelease}}."), 0o644))
	p, err = LoadSystem("", tmpl, SystemData{JavaRelease: 17})
	require.NoError(t, err)
	assert.Equal(t, "Target Java 17.", p.String())

	_, err = LoadSystem("", filepath.Join(dir, "missing.txt"), SystemData{})
	assert.Error(t, err)
}
