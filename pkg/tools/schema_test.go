// Copyright 2025 The Codur Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSchemaReflectsRequiredFields(t *testing.T) {
	schema, err := GenerateSchema(writeFileParams{})
	require.NoError(t, err)
	require.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, props, "path")
	require.Contains(t, props, "content")
	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	require.Contains(t, required, "path")
	require.Contains(t, required, "content")
}

func TestGenerateSchemaHandlesNilParamsType(t *testing.T) {
	schema, err := GenerateSchema(nil)
	require.NoError(t, err)
	require.Equal(t, "object", schema["type"])
}

func TestBuildDefinitionUsesMetadataNameAndSummary(t *testing.T) {
	def, err := BuildDefinition(Entry{Metadata: Metadata{Name: "read_file", Summary: "reads a file", ParamsType: pathParams{}}})
	require.NoError(t, err)
	require.Equal(t, "read_file", def.Name)
	require.Equal(t, "reads a file", def.Description)
}

func TestDefinitionsForBuiltins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterFileTools(r, nil))
	defs, errs := Definitions(r.List())
	require.Empty(t, errs)
	require.NotEmpty(t, defs)
}
