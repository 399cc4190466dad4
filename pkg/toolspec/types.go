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

// Package toolspec defines the closed vocabulary shared by the classifier,
// planner, tool registry and sub-agents: task types, tool side effects,
// tool contexts and tool guards.
package toolspec

// TaskType classifies a user request for routing and tool-set scoping.
type TaskType string

const (
	TaskGreeting          TaskType = "greeting"
	TaskFileOperation     TaskType = "file_operation"
	TaskCodeFix           TaskType = "code_fix"
	TaskCodeGeneration    TaskType = "code_generation"
	TaskCodeValidation    TaskType = "code_validation"
	TaskResultVerify      TaskType = "result_verification"
	TaskDocumentation     TaskType = "documentation"
	TaskExplanation       TaskType = "explanation"
	TaskComplexRefactor   TaskType = "complex_refactor"
	TaskWebSearch         TaskType = "web_search"
	TaskCodeAnalysis      TaskType = "code_analysis"
	TaskMetaTool          TaskType = "meta_tool"
	TaskUnknown           TaskType = "unknown"
)

// AllTaskTypes enumerates the closed set, in the deterministic tie-break
// order used by the quick classifier (strategy.go).
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskGreeting, TaskFileOperation, TaskExplanation, TaskWebSearch,
		TaskCodeFix, TaskCodeGeneration, TaskComplexRefactor,
		TaskCodeValidation, TaskResultVerify, TaskDocumentation,
		TaskCodeAnalysis, TaskMetaTool, TaskUnknown,
	}
}

// ToolSideEffect is an observable change a tool may cause outside of
// reading state.
type ToolSideEffect string

const (
	SideEffectFileMutation ToolSideEffect = "file_mutation"
	SideEffectCodeExec     ToolSideEffect = "code_execution"
	SideEffectStateChange  ToolSideEffect = "state_change"
	SideEffectNetwork      ToolSideEffect = "network"
)

// ToolContext is an ambient capability a tool needs from its caller.
type ToolContext string

const (
	ContextFilesystem ToolContext = "filesystem"
	ContextSearch     ToolContext = "search"
	ContextConfig     ToolContext = "config"
)

// ToolGuard is a pre-invocation check attached to a tool.
type ToolGuard string

const (
	// GuardTestOverwrite refuses to overwrite an existing test file
	// unless the originating human message explicitly asked for it.
	GuardTestOverwrite ToolGuard = "test_overwrite"
)

// Set is a small unordered collection with no duplicate tracking needed
// beyond membership; used for scenarios/side-effects/contexts/guards.
type Set[T comparable] map[T]struct{}

// NewSet builds a Set from the given elements.
func NewSet[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Has reports whether v is a member of the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Intersects reports whether s and other share at least one element.
func (s Set[T]) Intersects(other Set[T]) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if big.Has(k) {
			return true
		}
	}
	return false
}

// Union returns a new set containing every element of s and other.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := make(Set[T], len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// MetaTool names the closed set of control-flow tool calls. A meta-tool
// short-circuits the enclosing sub-agent only when it is in that loop's
// terminal set: coding ends on done and build_verification_response,
// verification only on build_verification_response, a generic delegated
// agent on all four. Other meta-tool calls are dispatched like ordinary
// tools and the loop continues.
type MetaTool string

const (
	MetaDone                     MetaTool = "done"
	MetaBuildVerificationResult  MetaTool = "build_verification_response"
	MetaClarify                  MetaTool = "clarify"
	MetaTaskComplete             MetaTool = "task_complete"
)

// IsMetaTool reports whether name is one of the closed meta-tool names.
func IsMetaTool(name string) bool {
	switch MetaTool(name) {
	case MetaDone, MetaBuildVerificationResult, MetaClarify, MetaTaskComplete:
		return true
	default:
		return false
	}
}

// MutatingTools is the closed set of tool names the planner's
// mutation-intent retry (spec §4.4) treats as producing an edit.
var MutatingTools = NewSet(
	"write_file", "append_file", "replace_in_file", "delete_file",
	"copy_file", "move_file", "copy_to_dir", "move_to_dir",
	"write_json", "set_json_value", "write_yaml", "set_yaml_value",
	"write_ini", "set_ini_value", "inject_function", "replace_function",
	"replace_class", "replace_method", "replace_file_content",
	"rope_rename_symbol", "rope_move_module", "rope_extract_method",
)
