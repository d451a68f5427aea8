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
	"fmt"
	"sort"
	"strings"
)

// Section headings shared with the model across attempts.
const (
	HeadersHeading     = "===== INCLUDED HEADER FILES (.h) ====="
	SourceHeading      = "===== C++ SOURCE FILE ====="
	HintsHeading       = "Hints provided from the C++ code:"
	InstructionHeading = "Additional instructions for this translation:"
)

// DefaultJavaRelease is the Java language level requested from the model and javac.
const DefaultJavaRelease = 17

// InitialRequest carries everything the first translation prompt needs.
type InitialRequest struct {
	Identifier   string
	Source       string
	Headers      map[string]string
	Instructions string
	Hints        []string
}

// CorrectiveRequest describes one failed attempt. Attempt is 0-based; Code is
// the candidate as generated, without the injected package declaration.
type CorrectiveRequest struct {
	Identifier  string
	Attempt     int
	Code        string
	Log         string
	PreviousLog string
}

// Builder renders translation prompts.
type Builder struct {
	JavaRelease int
}

// NewBuilder returns a Builder targeting the given Java release; values <= 0
// select DefaultJavaRelease.
func NewBuilder(release int) *Builder {
	if release <= 0 {
		release = DefaultJavaRelease
	}
	return &Builder{JavaRelease: release}
}

// Initial builds the prompt for attempt 0.
func (b *Builder) Initial(req InitialRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Translate the following C++ source file into idiomatic, fully compilable Java %d code.", b.JavaRelease)
	if len(req.Headers) > 0 {
		sb.WriteString("\n")
		sb.WriteString(HeadersHeading)
		sb.WriteString("\n")
		names := make([]string, 0, len(req.Headers))
		for name := range req.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "// HEADER: %s\n%s", name, req.Headers[name])
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(SourceHeading)
	sb.WriteString("\n")
	sb.WriteString(req.Source)
	sb.WriteString("\n\n")

	sb.WriteString("Translation Guidelines:\n")
	sb.WriteString("- Translate all logic, including edge cases, input validation, branching conditions, and error handling, with strict one-to-one functional fidelity.\n")
	sb.WriteString("- Do not simplify, rephrase, or restructure any control flow or behavior. The Java code must behave identically in all runtime scenarios.\n")
	fmt.Fprintf(&sb, "- The main public class must be named exactly \"%s\".\n", req.Identifier)
	sb.WriteString("- Keep function and method signatures semantically equivalent to the C++ version, including return types, parameters, optional arguments and overloads.\n")
	sb.WriteString("- Preserve variable and method names where possible so the C++ and Java versions stay traceable.\n")
	sb.WriteString("- Do not rename, refactor, optimize or simplify anything.\n")
	b.writeStructureRules(&sb, req.Identifier)
	sb.WriteString("\n")

	sb.WriteString("After outputting the Java file, double-check that:\n")
	sb.WriteString("- All branches, loops, and conditionals from the C++ file are represented.\n")
	sb.WriteString("- The behavior of all functions remains precisely the same as the C++ implementation.\n")
	sb.WriteString("- No logic has been omitted, reordered, or reinterpreted.\n")

	if len(req.Hints) > 0 {
		sb.WriteString("\n")
		sb.WriteString(HintsHeading)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(req.Hints, "\n"))
		sb.WriteString("\n")
	}

	if s := strings.TrimSpace(req.Instructions); s != "" {
		sb.WriteString("\n")
		sb.WriteString(InstructionHeading)
		sb.WriteString("\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Corrective builds the repair prompt sent after attempt req.Attempt failed to compile.
func (b *Builder) Corrective(req CorrectiveRequest) string {
	var sb strings.Builder
	n := req.Attempt + 1

	fmt.Fprintf(&sb, "The following Java code, intended to be saved as \"%s.java\", failed compilation on attempt %d.", req.Identifier, n)
	fmt.Fprintf(&sb, "\n\n===== CURRENT JAVA CODE (Attempt %d) =====\n%s", n, req.Code)
	fmt.Fprintf(&sb, "\n\n===== CURRENT COMPILATION ERRORS (Attempt %d) =====\n%s", n, req.Log)
	if req.PreviousLog != "" {
		fmt.Fprintf(&sb, "\n\n===== PREVIOUS COMPILATION ERRORS (Attempt %d) =====\n%s", n-1, req.PreviousLog)
		sb.WriteString("\n\nYour previous attempt resulted in the errors shown above ('PREVIOUS COMPILATION ERRORS'). ")
		sb.WriteString("Analyze BOTH the 'CURRENT' and 'PREVIOUS' errors carefully. ")
		sb.WriteString("DO NOT repeat the same mistakes. Identify the root cause and provide a significantly improved version.")
	} else {
		sb.WriteString("\n\nThis is the first attempt to fix the initial translation.")
	}

	sb.WriteString("\n\nPlease correct the code to fix all current compilation errors. Strictly follow these rules:\n")
	fmt.Fprintf(&sb, "1. Ensure the file contains exactly one top-level public class named \"%s\".\n", req.Identifier)
	sb.WriteString("2. Resolve all 'cannot find symbol' errors (missing methods, types, variables, incorrect references) and put every necessary import statement at the very top.\n")
	sb.WriteString("3. Adjust access modifiers (public, private, protected) correctly.\n")
	sb.WriteString("4. Fix invalid method declarations, constructors, and return types.\n")
	sb.WriteString("5. Ensure helper classes are defined correctly (top-level non-public or properly nested).\n")
	fmt.Fprintf(&sb, "6. Adhere strictly to Java %d syntax and conventions.\n", b.JavaRelease)
	sb.WriteString("7. Fix the root causes identified in the compilation error log, including issues from the previous log if any.\n\n")
	sb.WriteString("Output only the corrected, complete Java source code. Do not include explanations, comments outside the code, or markdown formatting.")
	return sb.String()
}

func (b *Builder) writeStructureRules(sb *strings.Builder, identifier string) {
	fmt.Fprintf(sb, "- The file must contain exactly one top-level public class, \"%s\"; helper types are non-public or nested.\n", identifier)
	sb.WriteString("- Place all import statements at the very top of the file.\n")
}
