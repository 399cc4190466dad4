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

package planner

import (
	"testing"

	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptIncludesToolCatalogue(t *testing.T) {
	defs := []llmprovider.ToolDefinition{{Name: "read_file", Description: "reads a file"}}
	prompt := BuildPrompt(nil, defs)
	require.Contains(t, prompt, "read_file")
	require.Contains(t, prompt, "reads a file")
}

func TestBuildPromptIncludesTaskFocusWhenFilesDetected(t *testing.T) {
	classification := &state.ClassificationResult{DetectedFiles: []string{"main.py"}, DetectedAction: "read"}
	prompt := BuildPrompt(classification, nil)
	require.Contains(t, prompt, "main.py")
	require.Contains(t, prompt, "read")
}

func TestBuildPromptOmitsTaskFocusWhenNoFiles(t *testing.T) {
	prompt := BuildPrompt(nil, nil)
	require.NotContains(t, prompt, "task_focus")
}
