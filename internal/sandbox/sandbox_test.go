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

package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_WithinRoot(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	resolved, err := s.Resolve("a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.txt"), resolved)
}

func TestResolve_StripsAtPrefix(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	resolved, err := s.Resolve("@main.py", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "main.py"), resolved)
}

func TestResolve_RefusesOutsideRoot(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	_, err := s.Resolve("../../etc/passwd", false)
	require.Error(t, err)
}

func TestResolve_AllowsOutsideRootWhenPermitted(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	s.AllowOutsideWorkspace = true

	_, err := s.Resolve("../../etc/passwd", false)
	require.NoError(t, err)
}

func TestResolve_AllowsOutsideRootPerCall(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	_, err := s.Resolve("../../etc/passwd", true)
	require.NoError(t, err)
}

func TestCheckSecretRead(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	err := s.CheckSecretRead(filepath.Join(root, ".env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret files disabled")

	s.AllowReadSecrets = true
	require.NoError(t, s.CheckSecretRead(filepath.Join(root, ".env")))
}

func TestIsTestFile(t *testing.T) {
	assert.True(t, IsTestFile("test_main.py"))
	assert.True(t, IsTestFile("main_test.py"))
	assert.True(t, IsTestFile("tests/helpers.py"))
	assert.False(t, IsTestFile("main.py"))
}

func TestCheckTestOverwrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test_main.py")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := CheckTestOverwrite(path, "fix the bug in main.py")
	require.Error(t, err)

	err = CheckTestOverwrite(path, "overwrite test_main.py with a new version")
	require.NoError(t, err)

	err = CheckTestOverwrite(path, "write a test for the new feature")
	require.NoError(t, err)
}

func TestCheckTestOverwrite_NewFileAllowed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test_new.py")
	require.NoError(t, CheckTestOverwrite(path, "anything goes"))
}

func TestGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nbuild\n"), 0o644))

	s := New(root)
	s.LoadGitignore()

	assert.True(t, s.MatchesGitignore("debug.log"))
	assert.True(t, s.MatchesGitignore("build"))
	assert.False(t, s.MatchesGitignore("main.py"))
}
