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

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
)

// ChatModelOracle adapts an eino chat model to Oracle.
type ChatModelOracle struct {
	name  string
	model model.BaseChatModel
}

func NewChatModelOracle(name string, m model.BaseChatModel) *ChatModelOracle {
	return &ChatModelOracle{name: name, model: m}
}

func (o *ChatModelOracle) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]*schema.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))

	out, err := o.model.Generate(ctx, msgs)
	if err != nil {
		return "", errors.Wrapf(err, "%s generate", o.name)
	}
	if out == nil {
		return "", nil
	}
	return strings.TrimSpace(out.Content), nil
}
