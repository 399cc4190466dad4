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

package state

import "github.com/codur-ai/codur/pkg/toolspec"

// Candidate is one scored task-type hypothesis kept for debugging
// alongside the winning ClassificationResult.
type Candidate struct {
	TaskType   toolspec.TaskType `json:"task_type"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}

// ClassificationResult is the Phase-1 verdict (spec §3, §4.3).
type ClassificationResult struct {
	TaskType       toolspec.TaskType `json:"task_type"`
	Confidence     float64           `json:"confidence"`
	DetectedFiles  []string          `json:"detected_files"`
	DetectedAction string            `json:"detected_action,omitempty"`
	Reasoning      string            `json:"reasoning"`
	Candidates     []Candidate       `json:"candidates"`
}

// ConfidenceThreshold is the "is_confident" cutoff from spec §4.3.
const ConfidenceThreshold = 0.8

// IsConfident reports whether this classification clears the threshold
// at which Phase 2 (the LLM planner) may be skipped.
func (c ClassificationResult) IsConfident() bool {
	return c.Confidence >= ConfidenceThreshold
}

// ResolvableWithoutLLM reports whether this classification's task type
// is one of the types spec §4.3 allows to resolve directly on a
// confident result: greeting, file_operation, explanation (with a
// known file), web_search.
func (c ClassificationResult) ResolvableWithoutLLM() bool {
	if !c.IsConfident() {
		return false
	}
	switch c.TaskType {
	case toolspec.TaskGreeting, toolspec.TaskFileOperation, toolspec.TaskWebSearch:
		return true
	case toolspec.TaskExplanation:
		return len(c.DetectedFiles) > 0
	default:
		return false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NewClassificationResult builds a result with confidence clamped into
// [0,1], per spec §4.3 step 3 ("confidence = clamp(score, 0, 1)").
func NewClassificationResult(taskType toolspec.TaskType, score float64, reasoning string, files []string, action string, candidates []Candidate) ClassificationResult {
	return ClassificationResult{
		TaskType:       taskType,
		Confidence:     clamp01(score),
		DetectedFiles:  files,
		DetectedAction: action,
		Reasoning:      reasoning,
		Candidates:     candidates,
	}
}
