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

	"github.com/codur-ai/codur/pkg/toolspec"
	"github.com/stretchr/testify/require"
)

func TestExtractFileReferencesFindsAtAndBarePaths(t *testing.T) {
	refs := ExtractFileReferences("please look at @src/main.py and also config.yaml")
	require.Contains(t, refs, "src/main.py")
	require.Contains(t, refs, "config.yaml")
}

func TestExtractFileReferencesStripsCommandToken(t *testing.T) {
	refs := ExtractFileReferences("run python main.py and check the output")
	require.NotContains(t, refs, "python")
	require.Contains(t, refs, "main.py")
}

func TestExtractFileReferencesFindsQuotedPath(t *testing.T) {
	refs := ExtractFileReferences(`rename "old name.txt" please`)
	require.Contains(t, refs, "old name.txt")
}

func TestClassifyGreetingIsConfident(t *testing.T) {
	result := Classify("hey thanks")
	require.Equal(t, toolspec.TaskGreeting, result.TaskType)
	require.True(t, result.IsConfident())
}

func TestClassifyFileOperationDetectsAction(t *testing.T) {
	result := Classify("copy report.csv somewhere else")
	require.Equal(t, toolspec.TaskFileOperation, result.TaskType)
	require.Equal(t, "copy", result.DetectedAction)
	require.Contains(t, result.DetectedFiles, "report.csv")
}

func TestClassifyExplanationWithFileIsConfident(t *testing.T) {
	result := Classify("can you explain what utils.py does")
	require.Equal(t, toolspec.TaskExplanation, result.TaskType)
	require.True(t, result.IsConfident())
	require.True(t, result.ResolvableWithoutLLM())
}

func TestClassifyCodeFixPrefersCodeFileEvidence(t *testing.T) {
	result := Classify("there is a bug in server.go that crashes on startup")
	require.Equal(t, toolspec.TaskCodeFix, result.TaskType)
	require.InDelta(t, 0.8, result.Confidence, 0.001)
}

func TestClassifyComplexRefactorVocabulary(t *testing.T) {
	result := Classify("please refactor the authentication module to use dependency injection")
	require.Equal(t, toolspec.TaskComplexRefactor, result.TaskType)
}

func TestClassifyUnknownFallsBackWithLowConfidence(t *testing.T) {
	result := Classify("xyzzy plugh")
	require.Equal(t, toolspec.TaskUnknown, result.TaskType)
	require.False(t, result.IsConfident())
}

func TestClassifyCandidatesCoverAllScoredStrategies(t *testing.T) {
	result := Classify("hello")
	require.Len(t, result.Candidates, len(allStrategies()))
}

func TestClassifyGreetingBeatsOtherTiedZeroScores(t *testing.T) {
	result := Classify("hi")
	require.Equal(t, toolspec.TaskGreeting, result.TaskType)
}
