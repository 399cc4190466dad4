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
	"os"
	"path/filepath"
	"testing"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/stretchr/testify/require"
)

func newAnalysisRegistry(t *testing.T) (*Registry, *sandbox.Sandbox, string) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, RegisterAnalysisTools(r, sb))
	return r, sb, root
}

func TestGrepSearchFindsMatches(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\nfunc Foo() {}\n"), 0o644))
	out := callTool(t, r, sb, "grep_search", map[string]interface{}{"pattern": "func Foo"})
	require.Contains(t, out.Content, "a.go:2")
}

func TestGrepSearchInvalidPatternErrors(t *testing.T) {
	r, sb, _ := newAnalysisRegistry(t)
	entry, _ := r.Get("grep_search")
	_, err := entry.Fn(nil, map[string]interface{}{"pattern": "("}, Ambient{Root: sb.Root})
	require.Error(t, err)
}

func TestPythonASTDependencies(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "m.py"), []byte("import os\nfrom collections import OrderedDict\n"), 0o644))
	out := callTool(t, r, sb, "python_ast_dependencies", map[string]interface{}{"path": "m.py"})
	imports := out.Output.([]string)
	require.Contains(t, imports, "os")
	require.Contains(t, imports, "collections")
}

func TestPythonASTDependenciesMultifile(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("import os\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("import sys\n"), 0o644))
	out := callTool(t, r, sb, "python_ast_dependencies_multifile", map[string]interface{}{"paths": []string{"a.py", "b.py"}})
	require.Contains(t, out.Content, "a.py: os")
	require.Contains(t, out.Content, "b.py: sys")
}

func TestMarkdownOutline(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.md"), []byte("# Title\n## Sub\ntext\n"), 0o644))
	out := callTool(t, r, sb, "markdown_outline", map[string]interface{}{"path": "doc.md"})
	require.Contains(t, out.Content, "Title")
	require.Contains(t, out.Content, "Sub")
}

func TestLintPythonTreeFindsMixedIndentation(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte("def f():\n \tpass\n"), 0o644))
	out := callTool(t, r, sb, "lint_python_tree", nil)
	require.Contains(t, out.Content, "bad.py")
}

func TestLintPythonTreeCleanReportsNoIssues(t *testing.T) {
	r, sb, root := newAnalysisRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.py"), []byte("def f():\n    pass\n"), 0o644))
	out := callTool(t, r, sb, "lint_python_tree", nil)
	require.Equal(t, "no issues found", out.Content)
}
