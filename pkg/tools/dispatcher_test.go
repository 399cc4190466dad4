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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, RegisterBuiltins(r, sb, BuiltinOptions{}))
	return NewDispatcher(r, sb), root
}

func TestExecuteRunsSequentialCalls(t *testing.T) {
	d, root := newTestDispatcher(t)
	result := d.Execute(context.Background(), []state.ToolCall{
		{Name: "write_file", Args: map[string]interface{}{"path": "a.txt", "content": "hi"}},
	}, "write a file")
	require.Empty(t, result.Errors)
	require.Len(t, result.Results, 1)
	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
}

func TestExecuteUnknownToolRecordsError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	result := d.Execute(context.Background(), []state.ToolCall{{Name: "nonexistent"}}, "")
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "unknown tool")
}

func TestExecuteFusesConsecutiveReads(t *testing.T) {
	d, root := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("B"), 0o644))

	result := d.Execute(context.Background(), []state.ToolCall{
		{Name: "read_file", Args: map[string]interface{}{"path": "a.txt"}},
		{Name: "read_file", Args: map[string]interface{}{"path": "b.txt"}},
	}, "")
	require.Empty(t, result.Errors)
	require.Len(t, result.Results, 1)
	require.Equal(t, "read_files", result.Results[0].Tool)
}

func TestExecuteAugmentsPythonReadWithDependencies(t *testing.T) {
	d, root := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "m.py"), []byte("import os\n"), 0o644))

	result := d.Execute(context.Background(), []state.ToolCall{
		{Name: "read_file", Args: map[string]interface{}{"path": "m.py"}},
	}, "")
	require.Empty(t, result.Errors)
	var sawDeps bool
	for _, r := range result.Results {
		if r.Tool == "python_ast_dependencies" {
			sawDeps = true
		}
	}
	require.True(t, sawDeps)
}

func TestNormalizeArgsStripsAtPrefix(t *testing.T) {
	out := normalizeArgs(map[string]interface{}{"path": "@a.txt", "paths": []string{"@a.txt", "b.txt"}})
	require.Equal(t, "a.txt", out["path"])
	require.Equal(t, []string{"a.txt", "b.txt"}, out["paths"])
}

func TestApplyGuardsBlocksTestFileOverwriteWithoutIntent(t *testing.T) {
	d, root := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo_test.py"), []byte("x"), 0o644))

	entry, _ := d.Registry.Get("write_file")
	err := d.applyGuards(entry, map[string]interface{}{"path": "foo_test.py"}, "please fix the bug")
	require.Error(t, err)
}

func TestApplyGuardsAllowsTestFileOverwriteWithExplicitIntent(t *testing.T) {
	d, root := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo_test.py"), []byte("x"), 0o644))

	entry, _ := d.Registry.Get("write_file")
	err := d.applyGuards(entry, map[string]interface{}{"path": "foo_test.py"}, "please update the test file foo_test.py")
	require.NoError(t, err)
}
