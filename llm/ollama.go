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

package llm

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	ollamaGeneratePath = "/api/generate"
)

type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
	Stream  bool           `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// OllamaOracle calls the non-streaming Ollama generate endpoint.
type OllamaOracle struct {
	url   string
	model string
	opts  map[string]any
	http  *resty.Client
}

func NewOllamaOracle(m ModelConfig) *OllamaOracle {
	if m.Timeout <= 0 {
		m.Timeout = DefaultTimeout
	}
	if m.NumCtx <= 0 {
		m.NumCtx = DefaultNumCtx
	}
	opts := map[string]any{"num_ctx": m.NumCtx}
	if m.Temperature != nil {
		opts["temperature"] = *m.Temperature
	}
	if m.MaxTokens > 0 {
		opts["num_predict"] = m.MaxTokens
	}
	return &OllamaOracle{
		url:   generateURL(m.BaseURL),
		model: m.ModelName,
		opts:  opts,
		http:  resty.New().SetTimeout(m.Timeout),
	}
}

// generateURL accepts either a server root or the full generate endpoint.
func generateURL(base string) string {
	if base == "" {
		base = defaultOllamaURL
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, ollamaGeneratePath) {
		return base
	}
	return base + ollamaGeneratePath
}

func (o *OllamaOracle) Generate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Model:   o.model,
		System:  req.System,
		Prompt:  req.Prompt,
		Options: o.opts,
		Stream:  false,
	}
	var out generateResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(o.url)
	if err != nil {
		return "", errors.Wrap(err, "ollama generate")
	}
	if resp.IsError() {
		if out.Error != "" {
			return "", errors.Errorf("ollama generate: %s: %s", resp.Status(), out.Error)
		}
		return "", errors.Errorf("ollama generate: %s; body: %s", resp.Status(), resp.String())
	}
	return strings.TrimSpace(out.Response), nil
}
