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
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *sandbox.Sandbox, string) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, RegisterFileTools(r, sb))
	return r, sb, root
}

func callTool(t *testing.T, r *Registry, sb *sandbox.Sandbox, name string, args map[string]interface{}) Result {
	t.Helper()
	entry, ok := r.Get(name)
	require.True(t, ok, "tool %s not registered", name)
	out, err := entry.Fn(context.Background(), args, Ambient{Root: sb.Root})
	require.NoError(t, err)
	return out
}

func TestWriteThenReadFile(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "hello.txt", "content": "hi"})
	out := callTool(t, r, sb, "read_file", map[string]interface{}{"path": "hello.txt"})
	require.Equal(t, "hi", out.Content)
}

func TestReadFileRefusesEscapingRoot(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	entry, _ := r.Get("read_file")
	_, err := entry.Fn(context.Background(), map[string]interface{}{"path": "../outside.txt"}, Ambient{Root: sb.Root})
	require.Error(t, err)
}

func TestReadFileRefusesSecretGlob(t *testing.T) {
	r, sb, root := newTestRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1"), 0o644))
	entry, _ := r.Get("read_file")
	_, err := entry.Fn(context.Background(), map[string]interface{}{"path": ".env"}, Ambient{Root: sb.Root})
	require.Error(t, err)
}

func TestAppendFile(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "log.txt", "content": "a"})
	callTool(t, r, sb, "append_file", map[string]interface{}{"path": "log.txt", "content": "b"})
	out := callTool(t, r, sb, "read_file", map[string]interface{}{"path": "log.txt"})
	require.Equal(t, "ab", out.Content)
}

func TestReplaceInFile(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "f.txt", "content": "foo bar"})
	callTool(t, r, sb, "replace_in_file", map[string]interface{}{"path": "f.txt", "search": "bar", "replace": "baz"})
	out := callTool(t, r, sb, "read_file", map[string]interface{}{"path": "f.txt"})
	require.Equal(t, "foo baz", out.Content)
}

func TestReplaceInFileMissingSearchErrors(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "f.txt", "content": "foo"})
	entry, _ := r.Get("replace_in_file")
	_, err := entry.Fn(context.Background(), map[string]interface{}{"path": "f.txt", "search": "nope", "replace": "x"}, Ambient{Root: sb.Root})
	require.Error(t, err)
}

func TestCopyAndMoveFile(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "a.txt", "content": "x"})
	callTool(t, r, sb, "copy_file", map[string]interface{}{"source": "a.txt", "destination": "b.txt"})
	out := callTool(t, r, sb, "read_file", map[string]interface{}{"path": "b.txt"})
	require.Equal(t, "x", out.Content)

	callTool(t, r, sb, "move_file", map[string]interface{}{"source": "b.txt", "destination": "c/d.txt"})
	out = callTool(t, r, sb, "read_file", map[string]interface{}{"path": "c/d.txt"})
	require.Equal(t, "x", out.Content)
}

func TestDeleteFile(t *testing.T) {
	r, sb, root := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "gone.txt", "content": "x"})
	callTool(t, r, sb, "delete_file", map[string]interface{}{"path": "gone.txt"})
	_, err := os.Stat(filepath.Join(root, "gone.txt"))
	require.Error(t, err)
}

func TestListFilesHonorsExcludeDirs(t *testing.T) {
	r, sb, root := newTestRegistry(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("x"), 0o644))
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "visible.txt", "content": "x"})
	out := callTool(t, r, sb, "list_files", nil)
	require.Contains(t, out.Content, "visible.txt")
	require.NotContains(t, out.Content, "HEAD")
}

func TestReadFilesMultiple(t *testing.T) {
	r, sb, _ := newTestRegistry(t)
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "a.txt", "content": "A"})
	callTool(t, r, sb, "write_file", map[string]interface{}{"path": "b.txt", "content": "B"})
	out := callTool(t, r, sb, "read_files", map[string]interface{}{"paths": []string{"a.txt", "b.txt"}})
	require.Contains(t, out.Content, "A")
	require.Contains(t, out.Content, "B")
}
