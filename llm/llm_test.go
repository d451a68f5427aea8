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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelType(t *testing.T) {
	assert.Equal(t, ModelTypeOllama, NewModelType(""))
	assert.Equal(t, ModelTypeOllama, NewModelType("Ollama"))
	assert.Equal(t, ModelTypeOllamaChat, NewModelType("ollama-chat"))
	assert.Equal(t, ModelTypeClaude, NewModelType("anthropic"))
	assert.Equal(t, ModelTypeDashScope, NewModelType("qwen"))
	assert.Equal(t, ModelTypeUnknown, NewModelType("nope"))
}

func TestGenerateURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/api/generate", generateURL(""))
	assert.Equal(t, "http://ollama:11434/api/generate", generateURL("http://ollama:11434/"))
	assert.Equal(t, "http://ollama:11434/api/generate", generateURL("http://ollama:11434/api/generate"))
}

func TestOllamaOracle(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ollamaGeneratePath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"  ` + "```java\\npublic class A {}\\n```" + `  ","done":true}`))
	}))
	defer srv.Close()

	o := NewOllamaOracle(ModelConfig{BaseURL: srv.URL, ModelName: "qwen2.5-coder"})
	out, err := o.Generate(context.Background(), Request{System: "sys", Prompt: "translate"})
	require.NoError(t, err)
	assert.Equal(t, "```java\npublic class A {}\n```", out)

	assert.Equal(t, "qwen2.5-coder", got["model"])
	assert.Equal(t, "sys", got["system"])
	assert.Equal(t, "translate", got["prompt"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, DefaultNumCtx, opts["num_ctx"])
}

func TestOllamaOracleHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaOracle(ModelConfig{BaseURL: srv.URL, ModelName: "x"}).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaOracleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOllamaOracle(ModelConfig{BaseURL: srv.URL}).Generate(ctx, Request{Prompt: "p"})
	assert.Error(t, err)
}

func TestOllamaOracleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewOllamaOracle(ModelConfig{BaseURL: url, Timeout: time.Second}).Generate(context.Background(), Request{Prompt: "p"})
	assert.Error(t, err)
}

type fakeChatModel struct {
	got  []*schema.Message
	resp *schema.Message
	err  error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	return f.resp, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestChatModelOracle(t *testing.T) {
	fm := &fakeChatModel{resp: schema.AssistantMessage(" class A {} ", nil)}
	o := NewChatModelOracle("fake", fm)
	out, err := o.Generate(context.Background(), Request{System: "sys", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "class A {}", out)
	require.Len(t, fm.got, 2)
	assert.Equal(t, schema.System, fm.got[0].Role)
	assert.Equal(t, schema.User, fm.got[1].Role)

	fm = &fakeChatModel{err: errors.New("boom")}
	_, err = NewChatModelOracle("fake", fm).Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "fake generate: boom")

	fm = &fakeChatModel{}
	out, err = NewChatModelOracle("fake", fm).Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, fm.got, 1)
}

func TestNewOracle(t *testing.T) {
	o, err := NewOracle(context.Background(), ModelConfig{APIType: ModelTypeOllama})
	require.NoError(t, err)
	assert.IsType(t, &OllamaOracle{}, o)

	_, err = NewOracle(context.Background(), ModelConfig{APIType: ModelTypeUnknown})
	assert.Error(t, err)
}
