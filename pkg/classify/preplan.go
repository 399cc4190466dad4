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

// Package classify implements the textual pre-planner (Phase 0) and the
// heuristic quick classifier (Phase 1) from spec §4.2-4.3: cheap,
// deterministic passes that resolve the bulk of requests without an
// LLM call. Phase 0 owns every explicit imperative pattern the spec
// names; the LLM planner's few-shot examples (pkg/planner) are for
// utterances that fail here and score below the Phase 1 confidence
// threshold, resolving the pre-planner/planner pattern-ownership
// overlap noted as an Open Question in spec §9.
package classify

import (
	"regexp"
	"strings"

	"github.com/codur-ai/codur/pkg/state"
)

const cannedGreeting = "Hello! How can I help you with your coding tasks today?"

// PreplanResult is Phase 0's verdict: either a terminal response or a
// deterministic tool-call batch, or no match (Matched=false).
type PreplanResult struct {
	Matched   bool
	Respond   bool
	Response  string
	ToolCalls []state.ToolCall
}

var (
	greetingWord = regexp.MustCompile(`(?i)^(hi|hello|hey|yo|thanks|thank you|ty)[\s!.,]*$`)

	explainPattern = regexp.MustCompile(`(?i)^(what does|explain|describe|summarize)\b.*?([./\w-]+\.\w+)`)

	movePattern   = regexp.MustCompile(`(?i)^move\s+(\S+)\s+to\s+(\S+)$`)
	copyPattern   = regexp.MustCompile(`(?i)^copy\s+(\S+)\s+to\s+(\S+)$`)
	deletePattern = regexp.MustCompile(`(?i)^delete\s+(\S+)$`)
	readPattern   = regexp.MustCompile(`(?i)^read\s+(\S+)$`)
	writePattern  = regexp.MustCompile(`(?i)^write\s+(.+?)\s+to\s+(\S+)$`)
	appendPattern = regexp.MustCompile(`(?i)^append\s+(.+?)\s+to\s+(\S+)$`)
	lineCountPat  = regexp.MustCompile(`(?i)^line count of\s+(\S+)$`)

	listFilesPat   = regexp.MustCompile(`(?i)^list files(?:\s+in\s+(\S+))?$`)
	findFilesPat   = regexp.MustCompile(`(?i)^find files named\s+(\S+)$`)
	grepPattern    = regexp.MustCompile(`(?i)^grep\s+(\S+)\s+in\s+(\S+)$`)
	replacePattern = regexp.MustCompile(`(?i)^replace\s+(\S+)\s+with\s+(\S+)\s+in\s+(\S+)$`)

	readJSONPat  = regexp.MustCompile(`(?i)^read json\s+(\S+)$`)
	writeYAMLPat = regexp.MustCompile(`(?i)^write yaml\s+(.+?)\s+to\s+(\S+)$`)
	setINIPat    = regexp.MustCompile(`(?i)^set ini\s+([\w.]+)\s+in\s+(\S+)\s+to\s+(\S+)$`)

	lintTreePat  = regexp.MustCompile(`(?i)^lint python tree(?:\s+(\S+))?$`)
	lintFilesPat = regexp.MustCompile(`(?i)^lint\s+(\S+\.py(?:\s+\S+\.py)*)$`)
)

// Preplan evaluates the textual pre-planner against the latest human
// message. Callers are responsible for only invoking it when
// runtime.detect_tool_calls_from_text is true and no tool results have
// been produced yet in the current turn (spec §4.2).
func Preplan(humanMessage string) PreplanResult {
	trimmed := strings.TrimSpace(humanMessage)

	if trimmed == "" {
		return PreplanResult{Matched: true, Respond: true, Response: cannedGreeting}
	}
	words := strings.Fields(trimmed)
	if len(words) <= 3 && greetingWord.MatchString(trimmed) {
		return PreplanResult{Matched: true, Respond: true, Response: cannedGreeting}
	}

	if m := explainPattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("read_file", map[string]interface{}{"path": m[2]})
	}

	if m := movePattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("move_file", map[string]interface{}{"source": m[1], "destination": m[2]})
	}
	if m := copyPattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("copy_file", map[string]interface{}{"source": m[1], "destination": m[2]})
	}
	if m := deletePattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("delete_file", map[string]interface{}{"path": m[1]})
	}
	if m := readPattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("read_file", map[string]interface{}{"path": m[1]})
	}
	if m := writePattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("write_file", map[string]interface{}{"path": m[2], "content": m[1]})
	}
	if m := appendPattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("append_file", map[string]interface{}{"path": m[2], "content": m[1]})
	}
	if m := lineCountPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("read_file", map[string]interface{}{"path": m[1]})
	}

	if m := listFilesPat.FindStringSubmatch(trimmed); m != nil {
		args := map[string]interface{}{}
		if m[1] != "" {
			args["path"] = m[1]
		}
		return toolResult("list_files", args)
	}
	if m := findFilesPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("grep_search", map[string]interface{}{"pattern": regexp.QuoteMeta(m[1])})
	}
	if m := grepPattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("grep_search", map[string]interface{}{"pattern": m[1], "path": m[2]})
	}
	if m := replacePattern.FindStringSubmatch(trimmed); m != nil {
		return toolResult("replace_in_file", map[string]interface{}{"path": m[3], "search": m[1], "replace": m[2]})
	}

	if m := readJSONPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("read_json", map[string]interface{}{"path": m[1]})
	}
	if m := writeYAMLPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("write_yaml", map[string]interface{}{"path": m[2], "data": m[1]})
	}
	if m := setINIPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("set_ini_value", map[string]interface{}{"path": m[2], "key": m[1], "value": m[3]})
	}

	if m := lintTreePat.FindStringSubmatch(trimmed); m != nil {
		args := map[string]interface{}{}
		if m[1] != "" {
			args["path"] = m[1]
		}
		return toolResult("lint_python_tree", args)
	}
	if m := lintFilesPat.FindStringSubmatch(trimmed); m != nil {
		return toolResult("lint_python_tree", map[string]interface{}{"path": strings.Fields(m[1])[0]})
	}

	return PreplanResult{Matched: false}
}

func toolResult(name string, args map[string]interface{}) PreplanResult {
	return PreplanResult{Matched: true, ToolCalls: []state.ToolCall{{Name: name, Args: args}}}
}
