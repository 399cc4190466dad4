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

package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreplanEmptyMessageReturnsGreeting(t *testing.T) {
	result := Preplan("")
	require.True(t, result.Matched)
	require.True(t, result.Respond)
	require.Equal(t, cannedGreeting, result.Response)
}

func TestPreplanShortGreetingReturnsGreeting(t *testing.T) {
	result := Preplan("hello")
	require.True(t, result.Matched)
	require.True(t, result.Respond)
}

func TestPreplanCopyFile(t *testing.T) {
	result := Preplan("copy a.txt to b.txt")
	require.True(t, result.Matched)
	require.False(t, result.Respond)
	require.Len(t, result.ToolCalls, 1)
	require.Equal(t, "copy_file", result.ToolCalls[0].Name)
	require.Equal(t, "a.txt", result.ToolCalls[0].Args["source"])
	require.Equal(t, "b.txt", result.ToolCalls[0].Args["destination"])
}

func TestPreplanExplainFile(t *testing.T) {
	result := Preplan("what does main.py do?")
	require.True(t, result.Matched)
	require.Equal(t, "read_file", result.ToolCalls[0].Name)
	require.Equal(t, "main.py", result.ToolCalls[0].Args["path"])
}

func TestPreplanDeleteFile(t *testing.T) {
	result := Preplan("delete old.txt")
	require.Equal(t, "delete_file", result.ToolCalls[0].Name)
	require.Equal(t, "old.txt", result.ToolCalls[0].Args["path"])
}

func TestPreplanWriteFile(t *testing.T) {
	result := Preplan("write hello world to greeting.txt")
	require.Equal(t, "write_file", result.ToolCalls[0].Name)
	require.Equal(t, "greeting.txt", result.ToolCalls[0].Args["path"])
	require.Equal(t, "hello world", result.ToolCalls[0].Args["content"])
}

func TestPreplanListFilesWithPath(t *testing.T) {
	result := Preplan("list files in src")
	require.Equal(t, "list_files", result.ToolCalls[0].Name)
	require.Equal(t, "src", result.ToolCalls[0].Args["path"])
}

func TestPreplanGrepSearch(t *testing.T) {
	result := Preplan("grep TODO in main.py")
	require.Equal(t, "grep_search", result.ToolCalls[0].Name)
	require.Equal(t, "TODO", result.ToolCalls[0].Args["pattern"])
	require.Equal(t, "main.py", result.ToolCalls[0].Args["path"])
}

func TestPreplanLintPythonTree(t *testing.T) {
	result := Preplan("lint python tree")
	require.Equal(t, "lint_python_tree", result.ToolCalls[0].Name)
}

func TestPreplanNoMatchForOpenEndedRequest(t *testing.T) {
	result := Preplan("please refactor the authentication module to use dependency injection")
	require.False(t, result.Matched)
}
