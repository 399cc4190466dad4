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

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/stretchr/testify/require"
)

func newStructuredRegistry(t *testing.T) (*Registry, *sandbox.Sandbox) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, RegisterStructuredTools(r, sb))
	return r, sb
}

func TestWriteReadJSON(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_json", map[string]interface{}{
		"path": "conf.json",
		"data": map[string]interface{}{"server": map[string]interface{}{"port": float64(8080)}},
	})
	out := callTool(t, r, sb, "read_json", map[string]interface{}{"path": "conf.json"})
	doc, ok := out.Output.(map[string]interface{})
	require.True(t, ok)
	server, ok := doc["server"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(8080), server["port"])
}

func TestSetJSONValue(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_json", map[string]interface{}{
		"path": "conf.json",
		"data": map[string]interface{}{"server": map[string]interface{}{"port": float64(8080)}},
	})
	callTool(t, r, sb, "set_json_value", map[string]interface{}{"path": "conf.json", "key": "server.port", "value": float64(9090)})
	out := callTool(t, r, sb, "read_json", map[string]interface{}{"path": "conf.json"})
	doc := out.Output.(map[string]interface{})
	server := doc["server"].(map[string]interface{})
	require.Equal(t, float64(9090), server["port"])
}

func TestWriteReadYAML(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_yaml", map[string]interface{}{
		"path": "conf.yaml",
		"data": map[string]interface{}{"name": "codur"},
	})
	out := callTool(t, r, sb, "read_yaml", map[string]interface{}{"path": "conf.yaml"})
	doc := out.Output.(map[string]interface{})
	require.Equal(t, "codur", doc["name"])
}

func TestSetYAMLValueCreatesNestedKey(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_yaml", map[string]interface{}{"path": "conf.yaml", "data": map[string]interface{}{}})
	callTool(t, r, sb, "set_yaml_value", map[string]interface{}{"path": "conf.yaml", "key": "runtime.max_iterations", "value": float64(10)})
	out := callTool(t, r, sb, "read_yaml", map[string]interface{}{"path": "conf.yaml"})
	doc := out.Output.(map[string]interface{})
	runtime := doc["runtime"].(map[string]interface{})
	require.Equal(t, float64(10), runtime["max_iterations"])
}

func TestWriteReadINI(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_ini", map[string]interface{}{
		"path": "conf.ini",
		"data": map[string]interface{}{"section": map[string]interface{}{"key": "value"}},
	})
	out := callTool(t, r, sb, "read_ini", map[string]interface{}{"path": "conf.ini"})
	doc := out.Output.(map[string]interface{})
	section := doc["section"].(map[string]interface{})
	require.Equal(t, "value", section["key"])
}

func TestSetINIValue(t *testing.T) {
	r, sb := newStructuredRegistry(t)
	callTool(t, r, sb, "write_ini", map[string]interface{}{
		"path": "conf.ini",
		"data": map[string]interface{}{"section": map[string]interface{}{"key": "old"}},
	})
	callTool(t, r, sb, "set_ini_value", map[string]interface{}{"path": "conf.ini", "key": "section.key", "value": "new"})
	out := callTool(t, r, sb, "read_ini", map[string]interface{}{"path": "conf.ini"})
	doc := out.Output.(map[string]interface{})
	section := doc["section"].(map[string]interface{})
	require.Equal(t, "new", section["key"])
}

func TestLookupMissingKey(t *testing.T) {
	_, ok := lookup(map[string]interface{}{"a": map[string]interface{}{"b": 1}}, "a.c")
	require.False(t, ok)
}
