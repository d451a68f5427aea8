// Copyright 2025 CloudWeGo Authors
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

package java

import (
	"regexp"
	"strings"
)

var (
	publicClassRe = regexp.MustCompile(`\bpublic\s+(?:final\s+|abstract\s+)?class\s+\w+\b`)
	packageRe     = regexp.MustCompile(`(?m)^[ \t]*package\s+([\w.]+)\s*;`)
	typeDeclRe    = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|protected|private|abstract|final|static|sealed|strictfp)\s+)*(?:class|interface|enum|record)\s+(\w+)`)
)

// EnforceTypeName renames the first public class declaration to name. Only
// the first match is rewritten; code without one is returned unchanged.
func EnforceTypeName(code, name string) string {
	loc := publicClassRe.FindStringIndex(code)
	if loc == nil {
		return code
	}
	return code[:loc[0]] + "public class " + name + code[loc[1]:]
}

// DeclaredTypeName returns the name of the first class, interface, enum or
// record declared at the start of a line, or "".
func DeclaredTypeName(code string) string {
	if m := typeDeclRe.FindStringSubmatch(code); len(m) > 1 {
		return m[1]
	}
	return ""
}

// AddPackageDeclaration makes sure code declares `package pkg;`. A different
// package declaration is rewritten in place; otherwise the declaration goes
// above the first line that is neither blank nor a comment, followed by a
// blank line.
func AddPackageDeclaration(code, pkg string) string {
	decl := "package " + pkg + ";"
	if m := packageRe.FindStringSubmatchIndex(code); m != nil {
		if code[m[2]:m[3]] == pkg {
			return code
		}
		return code[:m[0]] + decl + code[m[1]:]
	}

	trailingNL := strings.HasSuffix(code, "\n")
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	pos := firstCodeLine(lines)

	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:pos]...)
	out = append(out, decl)
	if pos >= len(lines) || strings.TrimSpace(lines[pos]) != "" {
		out = append(out, "")
	}
	out = append(out, lines[pos:]...)

	res := strings.Join(out, "\n")
	if trailingNL {
		res += "\n"
	}
	return res
}

// firstCodeLine skips leading blank lines, line comments and block comments.
func firstCodeLine(lines []string) int {
	inBlock := false
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if inBlock {
			if idx := strings.Index(s, "*/"); idx >= 0 {
				inBlock = false
				if rest := strings.TrimSpace(s[idx+2:]); rest != "" && !strings.HasPrefix(rest, "//") {
					return i
				}
			}
			continue
		}
		switch {
		case s == "", strings.HasPrefix(s, "//"):
			continue
		case strings.HasPrefix(s, "/*"):
			if idx := strings.Index(s[2:], "*/"); idx >= 0 {
				if rest := strings.TrimSpace(s[idx+4:]); rest != "" && !strings.HasPrefix(rest, "//") {
					return i
				}
				continue
			}
			inBlock = true
			continue
		}
		return i
	}
	return len(lines)
}
