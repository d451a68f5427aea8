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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCmd(t *testing.T) {
	out, err := run(t, newNormalizeCmd(), "123-bank system.cpp")
	require.NoError(t, err)
	assert.Equal(t, "123-bank system.cpp\tGenerated123BankSystem\n", out)

	_, err = run(t, newNormalizeCmd())
	assert.Error(t, err)
}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, newSchemaCmd(), "inbound")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, out)
	assert.Contains(t, props, "file_id")
	assert.Contains(t, props, "cpp_filename")

	out, err = run(t, newSchemaCmd(), "outbound")
	require.NoError(t, err)
	assert.Contains(t, out, "generate_test")
	assert.Contains(t, out, "java_file_path")

	_, err = run(t, newSchemaCmd(), "other")
	assert.Error(t, err)
}
