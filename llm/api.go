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
	"time"
)

type ModelConfig struct {
	APIType     ModelType     `yaml:"provider" json:"provider"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	APIKey      string        `yaml:"api_key" json:"api_key"`
	ModelName   string        `yaml:"model" json:"model"` // the endpoint of the model, like `qwen2.5-coder:7b`
	Temperature *float32      `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	NumCtx      int           `yaml:"num_ctx" json:"num_ctx"` // context window, only honored by the ollama generate API
	Timeout     time.Duration `yaml:"timeout" json:"timeout"` // per call, default: 180s
}

type ModelType string

func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "", "ollama":
		return ModelTypeOllama
	case "ollama-chat":
		return ModelTypeOllamaChat
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "dashscope", "qwen", "tongyi":
		return ModelTypeDashScope
	case "deepseek":
		return ModelTypeDeepSeek
	}
	return ModelTypeUnknown
}

const (
	ModelTypeUnknown    ModelType = ""
	ModelTypeOllama     ModelType = "ollama" // raw /api/generate
	ModelTypeOllamaChat ModelType = "ollama-chat"
	ModelTypeARK        ModelType = "ark"
	ModelTypeOpenAI     ModelType = "openai"
	ModelTypeClaude     ModelType = "claude"
	ModelTypeDashScope  ModelType = "dashscope" // 阿里云 DashScope (通义千问)
	ModelTypeDeepSeek   ModelType = "deepseek"
)

const (
	DefaultTimeout = 180 * time.Second
	DefaultNumCtx  = 4000
)

// Request is a single completion request.
type Request struct {
	System string
	Prompt string
}

// Oracle generates text for a prompt. Any returned error means the model
// service could not be reached or answered with a failure; an empty answer is
// not an error.
type Oracle interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, req Request) (string, error)

func (f OracleFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
