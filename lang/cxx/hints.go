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

// Package cxx inspects C++ sources and produces advisory translation hints.
package cxx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Feature is a C++ construct that needs attention when moving to Java.
type Feature string

const (
	FeatureClass      Feature = "class/struct"
	FeatureNamespace  Feature = "namespace"
	FeatureTemplate   Feature = "template"
	FeaturePointer    Feature = "pointer"
	FeatureMemory     Feature = "memory"
	FeatureSmartPtr   Feature = "smart-pointer"
	FeatureReference  Feature = "reference"
	FeatureOperator   Feature = "operator-overloading"
	FeatureConst      Feature = "const"
	FeatureAuto       Feature = "auto"
	FeatureRangeFor   Feature = "range-for"
	FeatureTypeAlias  Feature = "type-alias"
	FeatureEnum       Feature = "enum"
	FeatureMacro      Feature = "preprocessor"
	FeatureContainer  Feature = "stl-container"
	FeatureAlgorithm  Feature = "stl-algorithm"
	FeatureIOStream   Feature = "iostream"
	FeatureFStream    Feature = "fstream"
	FeatureString     Feature = "string"
	FeatureChrono     Feature = "chrono"
	FeatureThreading  Feature = "threading"
	FeatureFunctional Feature = "functional"
	FeatureException  Feature = "exception"
	FeatureNetwork    Feature = "networking"
	FeatureBoost      Feature = "boost"
)

// hintOrder fixes the order hints are reported in.
var hintOrder = []Feature{
	FeatureClass, FeatureNamespace, FeatureTemplate, FeaturePointer, FeatureMemory,
	FeatureSmartPtr, FeatureReference, FeatureOperator, FeatureConst, FeatureAuto,
	FeatureRangeFor, FeatureTypeAlias, FeatureEnum, FeatureMacro, FeatureContainer,
	FeatureAlgorithm, FeatureIOStream, FeatureFStream, FeatureString, FeatureChrono,
	FeatureThreading, FeatureFunctional, FeatureException, FeatureNetwork, FeatureBoost,
}

var staticHints = map[Feature]string{
	FeatureTemplate:   "Uses C++ templates. Translate with Java generics (class Box<T>, <T> T pick(...)); function templates become generic or overloaded methods.",
	FeaturePointer:    "Uses C++ pointers (*, ->). Replace them with Java object references; the garbage collector removes the need for explicit dereferencing.",
	FeatureMemory:     "Uses manual memory management (new/delete). Objects are still created with 'new' in Java, deallocation is left to the JVM.",
	FeatureSmartPtr:   "Uses smart pointers (unique_ptr, shared_ptr, weak_ptr). Plain Java references are enough; keep the ownership and lifetime logic explicit where it matters.",
	FeatureReference:  "Uses C++ references (&). Java passes references by value: pass objects directly for const&, and make sure mutations through non-const references are preserved.",
	FeatureOperator:   "Uses operator overloading. Java has none, implement named methods instead (add, equals, compareTo, get, set).",
	FeatureConst:      "Uses 'const'. Translate to 'final' where it prevents reassignment; const-correctness of objects has no direct Java equivalent.",
	FeatureAuto:       "Uses 'auto' type deduction. Use 'var' for local variables (Java 10+).",
	FeatureRangeFor:   "Uses range-based for loops. Translate to the enhanced for loop (for (Type v : collection)).",
	FeatureTypeAlias:  "Uses typedef/using aliases. Replace simple aliases with the full type; aliased function types become functional interfaces.",
	FeatureEnum:       "Uses C++ enums. Translate to Java enums and keep explicit numeric values as enum fields when the code depends on them.",
	FeatureMacro:      "Uses preprocessor directives. #define constants become static final fields, function-like macros become static methods, conditional compilation becomes runtime flags.",
	FeatureAlgorithm:  "Uses STL algorithms. Use java.util.Collections, java.util.Arrays or the Streams API for the same behavior.",
	FeatureIOStream:   "Uses iostream (cout, cin, cerr). Map to System.out, System.in (Scanner or BufferedReader) and System.err.",
	FeatureFStream:    "Performs file I/O with fstream. Use java.nio.file.Files or java.io readers/writers in try-with-resources.",
	FeatureString:     "Uses std::string or stringstream. Use String, StringBuilder and String.format.",
	FeatureChrono:     "Uses the chrono library. Use java.time (Instant, Duration, LocalDateTime).",
	FeatureFunctional: "Uses lambdas or std::function. Use Java functional interfaces (Runnable, Function, Supplier, Predicate) and lambda expressions.",
	FeatureException:  "Uses exception handling (try/catch/throw). Map to Java try/catch/finally and choose checked or unchecked exception types deliberately.",
	FeatureNetwork:    "Appears to perform HTTP/networking. Use java.net.http.HttpClient.",
	FeatureBoost:      "Uses Boost. Find Java equivalents for each component (Filesystem -> java.nio.file, Asio -> java.nio or HttpClient).",
}

// GeneralHint closes every non-empty hint list.
const GeneralHint = "General: Ensure the translated code is idiomatic Java 17+, using Streams, Optionals, Records, try-with-resources, java.time and java.nio where applicable."

var containerHints = map[string]string{
	"vector":         "vector -> ArrayList/List",
	"list":           "list -> LinkedList/List",
	"map":            "map -> TreeMap/Map",
	"unordered_map":  "unordered_map -> HashMap/Map",
	"set":            "set -> TreeSet/Set",
	"unordered_set":  "unordered_set -> HashSet/Set",
	"deque":          "deque -> ArrayDeque/Deque",
	"stack":          "stack -> ArrayDeque/Deque",
	"queue":          "queue -> ArrayDeque/Queue",
	"priority_queue": "priority_queue -> PriorityQueue",
	"pair":           "pair -> record or Map.Entry",
	"array":          "array -> Java array",
}

var stdNames = map[string]Feature{
	"cout": FeatureIOStream, "cin": FeatureIOStream, "cerr": FeatureIOStream, "endl": FeatureIOStream,
	"ifstream": FeatureFStream, "ofstream": FeatureFStream, "fstream": FeatureFStream,
	"string": FeatureString, "stringstream": FeatureString, "ostringstream": FeatureString, "istringstream": FeatureString,
	"chrono":     FeatureChrono,
	"unique_ptr": FeatureSmartPtr, "shared_ptr": FeatureSmartPtr, "weak_ptr": FeatureSmartPtr,
	"make_unique": FeatureSmartPtr, "make_shared": FeatureSmartPtr,
	"function": FeatureFunctional,
	"sort":     FeatureAlgorithm, "find": FeatureAlgorithm, "count": FeatureAlgorithm,
	"transform": FeatureAlgorithm, "accumulate": FeatureAlgorithm, "for_each": FeatureAlgorithm,
}

var threadNames = map[string]string{
	"thread": "thread", "mutex": "mutex", "lock_guard": "mutex", "unique_lock": "mutex",
	"atomic": "atomic", "future": "future/async", "async": "future/async", "promise": "future/async",
}

var includeFeatures = map[string]Feature{
	"iostream": FeatureIOStream, "fstream": FeatureFStream, "string": FeatureString,
	"sstream": FeatureString, "chrono": FeatureChrono, "functional": FeatureFunctional,
	"algorithm": FeatureAlgorithm, "numeric": FeatureAlgorithm, "memory": FeatureSmartPtr,
	"curl/curl.h": FeatureNetwork, "httplib.h": FeatureNetwork, "cpprest/http_client.h": FeatureNetwork,
}

// Extractor detects C++ features with the tree-sitter C++ grammar.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns one advisory string per detected feature followed by
// GeneralHint, or nil when nothing was detected.
func (e *Extractor) Extract(ctx context.Context, src []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse c++ source")
	}
	defer tree.Close()

	d := newDetection()
	d.walk(tree.RootNode(), src)
	return d.hints(), nil
}

type detection struct {
	found      map[Feature]bool
	classes    []string
	structs    []string
	namespaces []string
	containers map[string]bool
	threading  map[string]bool
	seen       map[string]bool
}

func newDetection() *detection {
	return &detection{
		found:      make(map[Feature]bool),
		containers: make(map[string]bool),
		threading:  make(map[string]bool),
		seen:       make(map[string]bool),
	}
}

func (d *detection) walk(n *sitter.Node, src []byte) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_specifier", "struct_specifier":
		if name := n.ChildByFieldName("name"); name != nil {
			d.addType(n.Type() == "class_specifier", name.Content(src))
		}
	case "namespace_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			d.addNamed(&d.namespaces, "ns:"+name.Content(src), name.Content(src))
		}
		d.found[FeatureNamespace] = true
	case "template_declaration":
		d.found[FeatureTemplate] = true
	case "pointer_declarator", "abstract_pointer_declarator":
		d.found[FeaturePointer] = true
	case "pointer_expression":
		if op := n.ChildByFieldName("operator"); op != nil && op.Type() == "*" {
			d.found[FeaturePointer] = true
		}
	case "field_expression":
		if op := n.ChildByFieldName("operator"); op != nil && op.Type() == "->" {
			d.found[FeaturePointer] = true
		}
	case "new_expression", "delete_expression":
		d.found[FeatureMemory] = true
	case "reference_declarator", "abstract_reference_declarator":
		d.found[FeatureReference] = true
	case "operator_name":
		d.found[FeatureOperator] = true
	case "type_qualifier":
		if n.Content(src) == "const" {
			d.found[FeatureConst] = true
		}
	case "auto", "placeholder_type_specifier":
		d.found[FeatureAuto] = true
	case "for_range_loop":
		d.found[FeatureRangeFor] = true
	case "alias_declaration", "type_definition":
		d.found[FeatureTypeAlias] = true
	case "enum_specifier":
		d.found[FeatureEnum] = true
	case "preproc_def", "preproc_function_def", "preproc_ifdef", "preproc_if":
		d.found[FeatureMacro] = true
	case "preproc_include":
		if path := n.ChildByFieldName("path"); path != nil {
			d.addInclude(strings.Trim(path.Content(src), `<>"`))
		}
	case "template_type":
		if name := n.ChildByFieldName("name"); name != nil {
			d.addStdName(name.Content(src))
		}
	case "qualified_identifier":
		if scope := n.ChildByFieldName("scope"); scope != nil && scope.Content(src) == "std" {
			if name := n.ChildByFieldName("name"); name != nil {
				d.addStdName(leadingIdent(name.Content(src)))
			}
		}
	case "identifier", "type_identifier":
		switch s := n.Content(src); s {
		case "cout", "cin", "cerr", "endl":
			d.found[FeatureIOStream] = true
		case "string":
			d.found[FeatureString] = true
		}
	case "lambda_expression":
		d.found[FeatureFunctional] = true
	case "try_statement", "throw_statement", "catch_clause":
		d.found[FeatureException] = true
	case "string_literal":
		s := n.Content(src)
		if strings.Contains(s, "http://") || strings.Contains(s, "https://") {
			d.found[FeatureNetwork] = true
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		d.walk(n.Child(i), src)
	}
}

func (d *detection) addType(isClass bool, name string) {
	d.found[FeatureClass] = true
	if isClass {
		d.addNamed(&d.classes, "class:"+name, name)
	} else {
		d.addNamed(&d.structs, "struct:"+name, name)
	}
}

func (d *detection) addNamed(dst *[]string, key, name string) {
	if name == "" || d.seen[key] {
		return
	}
	d.seen[key] = true
	*dst = append(*dst, name)
}

func (d *detection) addStdName(name string) {
	if hint, ok := containerHints[name]; ok {
		d.containers[hint] = true
		d.found[FeatureContainer] = true
		return
	}
	if lib, ok := threadNames[name]; ok {
		d.threading[lib] = true
		d.found[FeatureThreading] = true
		return
	}
	if f, ok := stdNames[name]; ok {
		d.found[f] = true
	}
}

func (d *detection) addInclude(header string) {
	if f, ok := includeFeatures[header]; ok {
		d.found[f] = true
	}
	if lib, ok := threadNames[header]; ok {
		d.threading[lib] = true
		d.found[FeatureThreading] = true
	}
	switch {
	case strings.HasPrefix(header, "boost/asio"):
		d.found[FeatureNetwork] = true
		d.found[FeatureBoost] = true
	case strings.HasPrefix(header, "boost/"):
		d.found[FeatureBoost] = true
	}
}

func (d *detection) hints() []string {
	var out []string
	for _, f := range hintOrder {
		if !d.found[f] {
			continue
		}
		switch f {
		case FeatureClass:
			out = append(out, d.classHint())
		case FeatureNamespace:
			if len(d.namespaces) > 0 {
				out = append(out, fmt.Sprintf("Uses namespaces: %s. Map them to Java packages or nested static classes.", strings.Join(d.namespaces, ", ")))
			} else {
				out = append(out, "Uses anonymous namespaces. Make their members private static members of the main class.")
			}
		case FeatureContainer:
			out = append(out, fmt.Sprintf("Uses STL containers: %s. Use the Java Collections Framework and declare variables with interface types (List, Map, Set).", strings.Join(sortedKeys(d.containers), ", ")))
		case FeatureThreading:
			out = append(out, fmt.Sprintf("Uses C++ concurrency (%s). Use java.util.concurrent: executors for threads, synchronized or ReentrantLock for mutexes, atomic classes, CompletableFuture for futures.", strings.Join(sortedKeys(d.threading), ", ")))
		default:
			out = append(out, staticHints[f])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return append(out, GeneralHint)
}

func (d *detection) classHint() string {
	var kind string
	names := append(append([]string{}, d.classes...), d.structs...)
	switch {
	case len(d.classes) > 0 && len(d.structs) > 0:
		kind = "classes/structs"
	case len(d.classes) > 0:
		kind = "classes"
	default:
		kind = "structs"
	}
	return fmt.Sprintf("Detected C++ %s: %s. Translate to Java classes; simple data aggregates may become records.", kind, strings.Join(names, ", "))
}

func leadingIdent(s string) string {
	for i, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return s[:i]
		}
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
