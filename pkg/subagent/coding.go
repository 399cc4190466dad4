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

package subagent

import (
	"context"
	"fmt"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/codur-ai/codur/pkg/toolspec"
)

// codingMaxDepth is the coding sub-agent's recursion bound (spec §4.6
// "recursion_depth ≤ 3").
const codingMaxDepth = 3

// codingScenarios is the set of task types whose tools the coding
// sub-agent's system prompt is scoped to (spec §4.6 "system prompt
// scoped to tools whose scenarios intersect {code_fix, code_generation,
// code_validation, file_operation, refactor, meta_tool}"). "refactor"
// in the spec's prose maps to complex_refactor in this closed
// vocabulary (toolspec.TaskType has no bare "refactor" member).
var codingScenarios = []toolspec.TaskType{
	toolspec.TaskCodeFix, toolspec.TaskCodeGeneration, toolspec.TaskCodeValidation,
	toolspec.TaskFileOperation, toolspec.TaskComplexRefactor, toolspec.TaskMetaTool,
}

const codingSystemPrompt = `You are the coding sub-agent of an orchestrator. Make the requested ` +
	`code change using the available tools, then call "done" with a one-paragraph summary once finished.`

// CodingTerminal records which meta-tool ended a coding sub-agent run,
// so the router (spec §4.8) can tell a plain "done" apart from a
// self-reported "build_verification_response" without reparsing the
// outcome's Result string.
type CodingTerminal struct {
	// Tool is "done", "build_verification_response", or "" when the
	// recursion bound was exhausted without either.
	Tool string
	// Passed is only meaningful when Tool == "build_verification_response".
	Passed bool
}

// RunCoding drives the coding sub-agent to completion or its
// recursion bound, whichever comes first (spec §4.6). It retries once
// on the configured fallback_model if the primary LLM invocation
// fails outright.
func RunCoding(
	ctx context.Context,
	reg *llmprovider.Registry,
	cfg *config.Config,
	toolReg *tools.Registry,
	dispatcher *tools.Dispatcher,
	humanMessage string,
	messages []state.Message,
) (state.AgentOutcome, CodingTerminal) {
	entries := toolReg.ListForTasks(tools.ListFilter{TaskTypes: codingScenarios})
	lc := loopConfig{
		AgentName:        "coding",
		SystemPrompt:     codingSystemPrompt,
		ToolDefs:         scopedToolDefs(entries),
		Profile:          cfg.LLM.DefaultProfile,
		FallbackProfiles: nil,
		Temperature:      cfg.LLM.GenerationTemperature,
		MaxDepth:         codingMaxDepth,
		TerminalTools:    toolspec.NewSet(toolspec.MetaDone, toolspec.MetaBuildVerificationResult),
	}

	transcript, terminal, err := runLoop(ctx, reg, dispatcher, humanMessage, messages, lc)
	if err != nil {
		fallback := cfg.Agents.Preferences.FallbackModel
		if fallback == "" {
			return state.AgentOutcome{Agent: "coding", Status: state.StatusError, Result: err.Error(), Messages: transcript}, CodingTerminal{}
		}
		lc.Profile = fallback
		transcript, terminal, err = runLoop(ctx, reg, dispatcher, humanMessage, messages, lc)
		if err != nil {
			return state.AgentOutcome{Agent: "coding", Status: state.StatusError, Result: err.Error(), Messages: transcript}, CodingTerminal{}
		}
	}

	if terminal == nil {
		outcome := state.AgentOutcome{
			Agent:    "coding",
			Status:   state.StatusFailed,
			Result:   fmt.Sprintf("recursion depth %d reached without a terminal call", codingMaxDepth),
			Messages: transcript,
		}
		return outcome, CodingTerminal{}
	}

	switch toolspec.MetaTool(terminal.Name) {
	case toolspec.MetaDone:
		summary, _ := terminal.Args["summary"].(string)
		outcome := state.AgentOutcome{Agent: "coding", Status: state.StatusSuccess, Result: summary, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaDone)}
	case toolspec.MetaBuildVerificationResult:
		passed, _ := terminal.Args["passed"].(bool)
		report, _ := terminal.Args["report"].(string)
		status := state.StatusFailed
		if passed {
			status = state.StatusSuccess
		}
		outcome := state.AgentOutcome{Agent: "coding", Status: status, Result: report, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaBuildVerificationResult), Passed: passed}
	default:
		outcome := state.AgentOutcome{Agent: "coding", Status: state.StatusFailed, Result: "unexpected terminal call " + terminal.Name, Messages: transcript}
		return outcome, CodingTerminal{}
	}
}
