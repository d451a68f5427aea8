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
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

type Prompt interface {
	String() string
}

type TextPrompt string

func (p TextPrompt) String() string {
	return string(p)
}

func NewTextPrompt(content string) Prompt {
	return TextPrompt(content)
}

// DefaultSystemPrompt is used when neither inline text nor a file is configured.
const DefaultSystemPrompt = "You are an expert C++ and Java engineer. You translate C++ programs into " +
	"compilable Java that behaves exactly like the original. You answer with Java source code only."

// SystemData is available to templated system prompt files.
type SystemData struct {
	JavaRelease int
}

// LoadSystem resolves the system instruction: inline text wins, then a file
// (files ending in .tmpl are rendered as text/template with data), then
// DefaultSystemPrompt.
func LoadSystem(inline, path string, data SystemData) (Prompt, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return TextPrompt(s), nil
	}
	if path == "" {
		return TextPrompt(DefaultSystemPrompt), nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read system prompt %s", path)
	}
	if !strings.HasSuffix(path, ".tmpl") {
		return TextPrompt(strings.TrimSpace(string(bs))), nil
	}
	tpl, err := template.New("system").Parse(string(bs))
	if err != nil {
		return nil, errors.Wrapf(err, "parse system prompt template %s", path)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "render system prompt template %s", path)
	}
	return TextPrompt(strings.TrimSpace(buf.String())), nil
}
