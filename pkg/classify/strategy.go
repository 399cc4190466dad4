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
	"regexp"
	"strings"

	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/toolspec"
)

// Strategy scores one TaskType against an utterance, grounded on the
// teacher's ReasoningStrategy interface pattern (pkg/reasoning/interfaces.go)
// generalized from "drive an iteration" to "score a classification".
type Strategy interface {
	TaskType() toolspec.TaskType
	Score(ctx ScoreContext) scoredCandidate
}

// scoredCandidate carries the file-operation action alongside the
// state.Candidate shape, since Candidate itself (shared with the
// state package's JSON wire shape) has no room for it.
type scoredCandidate struct {
	state.Candidate
	Action string
}

// ScoreContext is the lowercased utterance plus derived features every
// strategy scores against (spec §4.3 step 1-2).
type ScoreContext struct {
	Lower         string
	Words         map[string]struct{}
	DetectedFiles []string
	HasCodeFile   bool
}

var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true, ".java": true,
	".c": true, ".cpp": true, ".rb": true, ".rs": true,
}

var (
	fileRefPattern  = regexp.MustCompile(`@[\w./-]+|\b[\w./-]+\.(?:py|js|ts|jsx|tsx|json|yaml|yml|md|txt|html|css|go|csv|xml|toml|ini|sh|sql|rb|rs|java|c|cpp|h)\b`)
	quotedPattern   = regexp.MustCompile("[\"'`]([^\"'`]+)[\"'`]")
	commandTokenSet = map[string]bool{"python": true, "python3": true, "node": true, "go": true, "ruby": true}
)

// ExtractFileReferences finds @-prefixed tokens, extension-matched
// bare tokens, and quoted paths in message, stripping leading command
// tokens like "python" from "python main.py" (spec §4.3 step 1).
func ExtractFileReferences(message string) []string {
	seen := map[string]bool{}
	var out []string

	add := func(ref string) {
		ref = strings.Trim(ref, "@\"'`")
		if ref == "" || seen[ref] || commandTokenSet[strings.ToLower(ref)] {
			return
		}
		seen[ref] = true
		out = append(out, ref)
	}

	for _, m := range fileRefPattern.FindAllString(message, -1) {
		add(m)
	}
	for _, m := range quotedPattern.FindAllStringSubmatch(message, -1) {
		add(m[1])
	}
	return out
}

func hasCodeExtension(files []string) bool {
	for _, f := range files {
		for ext := range codeExtensions {
			if strings.HasSuffix(strings.ToLower(f), ext) {
				return true
			}
		}
	}
	return false
}

func wordSet(lower string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(lower) {
		out[strings.Trim(w, ".,!?;:")] = struct{}{}
	}
	return out
}

func hasAny(words map[string]struct{}, candidates ...string) bool {
	for _, c := range candidates {
		if _, ok := words[c]; ok {
			return true
		}
	}
	return false
}

func allStrategies() []Strategy {
	return []Strategy{
		greetingStrategy{}, fileOperationStrategy{}, explanationStrategy{},
		webSearchStrategy{}, codeFixStrategy{}, codeGenerationStrategy{},
		complexRefactorStrategy{}, unknownStrategy{},
	}
}

type greetingStrategy struct{}

func (greetingStrategy) TaskType() toolspec.TaskType { return toolspec.TaskGreeting }
func (greetingStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "hi", "hello", "hey", "thanks", "thank") && len(ctx.Words) <= 4 {
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskGreeting, Confidence: 0.95, Reasoning: "short greeting utterance"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskGreeting, Confidence: 0, Reasoning: "no greeting token"}, ""}
}

type fileOperationStrategy struct{}

func (fileOperationStrategy) TaskType() toolspec.TaskType { return toolspec.TaskFileOperation }
func (fileOperationStrategy) Score(ctx ScoreContext) scoredCandidate {
	action := ""
	verbs := map[string]string{
		"copy": "copy", "move": "move", "delete": "delete", "read": "read",
		"write": "write", "append": "append", "list": "list", "rename": "move",
	}
	for verb, act := range verbs {
		if hasAny(ctx.Words, verb) {
			action = act
			break
		}
	}
	if action == "" || len(ctx.DetectedFiles) == 0 {
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskFileOperation, Confidence: 0, Reasoning: "no file-op verb+path"}, ""}
	}
	return scoredCandidate{
		state.Candidate{TaskType: toolspec.TaskFileOperation, Confidence: 0.85, Reasoning: "file-op verb with a referenced path"},
		action,
	}
}

type explanationStrategy struct{}

func (explanationStrategy) TaskType() toolspec.TaskType { return toolspec.TaskExplanation }
func (explanationStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "explain", "describe", "summarize", "what", "how", "why") {
		conf := 0.5
		if len(ctx.DetectedFiles) > 0 {
			conf = 0.85
		}
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskExplanation, Confidence: conf, Reasoning: "question word present"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskExplanation, Confidence: 0, Reasoning: "no question word"}, ""}
}

type webSearchStrategy struct{}

func (webSearchStrategy) TaskType() toolspec.TaskType { return toolspec.TaskWebSearch }
func (webSearchStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "search", "google", "lookup", "browse") && strings.Contains(ctx.Lower, "web") {
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskWebSearch, Confidence: 0.85, Reasoning: "web search phrasing"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskWebSearch, Confidence: 0, Reasoning: "no web search phrasing"}, ""}
}

type codeFixStrategy struct{}

func (codeFixStrategy) TaskType() toolspec.TaskType { return toolspec.TaskCodeFix }
func (codeFixStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "fix", "bug", "broken", "error", "issue", "crash") {
		conf := 0.6
		if ctx.HasCodeFile {
			conf = 0.8
		}
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskCodeFix, Confidence: conf, Reasoning: "bug-fix vocabulary"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskCodeFix, Confidence: 0, Reasoning: "no bug-fix vocabulary"}, ""}
}

type codeGenerationStrategy struct{}

func (codeGenerationStrategy) TaskType() toolspec.TaskType { return toolspec.TaskCodeGeneration }
func (codeGenerationStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "write", "create", "generate", "implement", "add") && hasAny(ctx.Words, "function", "class", "test", "feature", "endpoint") {
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskCodeGeneration, Confidence: 0.75, Reasoning: "generation verb + code noun"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskCodeGeneration, Confidence: 0, Reasoning: "no generation vocabulary"}, ""}
}

type complexRefactorStrategy struct{}

func (complexRefactorStrategy) TaskType() toolspec.TaskType { return toolspec.TaskComplexRefactor }
func (complexRefactorStrategy) Score(ctx ScoreContext) scoredCandidate {
	if hasAny(ctx.Words, "refactor", "restructure", "redesign", "reorganize") {
		return scoredCandidate{state.Candidate{TaskType: toolspec.TaskComplexRefactor, Confidence: 0.7, Reasoning: "refactor vocabulary"}, ""}
	}
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskComplexRefactor, Confidence: 0, Reasoning: "no refactor vocabulary"}, ""}
}

type unknownStrategy struct{}

func (unknownStrategy) TaskType() toolspec.TaskType { return toolspec.TaskUnknown }
func (unknownStrategy) Score(ctx ScoreContext) scoredCandidate {
	return scoredCandidate{state.Candidate{TaskType: toolspec.TaskUnknown, Confidence: 0.1, Reasoning: "default fallback"}, ""}
}

// Classify runs Phase 1: extracts file references, scores every
// strategy, and picks the maximum with deterministic tie-breaks (spec
// §4.3 steps 1-5).
func Classify(humanMessage string) state.ClassificationResult {
	lower := strings.ToLower(humanMessage)
	files := ExtractFileReferences(humanMessage)
	ctx := ScoreContext{
		Lower:         lower,
		Words:         wordSet(lower),
		DetectedFiles: files,
		HasCodeFile:   hasCodeExtension(files),
	}

	var scored []scoredCandidate
	for _, strat := range allStrategies() {
		scored = append(scored, strat.Score(ctx))
	}

	best := pickBest(scored)

	candidates := make([]state.Candidate, len(scored))
	for i, c := range scored {
		candidates[i] = c.Candidate
	}

	return state.NewClassificationResult(best.TaskType, best.Confidence, best.Reasoning, files, best.Action, candidates)
}

// pickBest selects the highest-scoring candidate, breaking ties by
// toolspec.AllTaskTypes position (spec §4.3 "ties yield the earlier type").
func pickBest(candidates []scoredCandidate) scoredCandidate {
	order := toolspec.AllTaskTypes()
	rank := make(map[toolspec.TaskType]int, len(order))
	for i, t := range order {
		rank[t] = i
	}

	best := candidates[0]
	bestRank := rank[best.TaskType]
	for _, c := range candidates[1:] {
		switch {
		case c.Confidence > best.Confidence:
			best, bestRank = c, rank[c.TaskType]
		case c.Confidence == best.Confidence:
			if r, ok := rank[c.TaskType]; ok && r < bestRank {
				best, bestRank = c, r
			}
		}
	}
	return best
}
