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

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/codur-ai/codur/pkg/toolspec"
)

// verificationMaxDepth is the verification sub-agent's recursion
// bound. Spec §9's Open Question leaves this undecided; this build
// settles on 4 (one more than coding's 3) since a verification pass
// typically needs one extra round-trip to run a check, read its
// output, and then call build_verification_response (see DESIGN.md).
const verificationMaxDepth = 4

// verificationScenarios scopes the verification sub-agent to read-only
// concerns (spec §4.7): code_validation, result_verification,
// file_operation, explanation (documentation reads), plus meta_tool
// for its own termination call.
var verificationScenarios = []toolspec.TaskType{
	toolspec.TaskCodeValidation, toolspec.TaskResultVerify,
	toolspec.TaskFileOperation, toolspec.TaskExplanation, toolspec.TaskMetaTool,
}

// verificationExcludedEffects additionally strips any tool carrying a
// mutating side effect, even one whose Scenarios set happens to
// overlap verificationScenarios (spec §4.7 "read-only: tool schemas
// filtered to ... AND side_effects ∩ {file_mutation, state_change} = ∅").
var verificationExcludedEffects = []toolspec.ToolSideEffect{
	toolspec.SideEffectFileMutation, toolspec.SideEffectStateChange,
}

const verificationSystemPrompt = `You are the verification sub-agent of an orchestrator. Infer an ` +
	`appropriate verification strategy (test-based, execution-based, static-analysis, or a hybrid of ` +
	`these) for the change described, carry it out using only the available read-only tools, and ` +
	`conclude by calling "build_verification_response" with your passed/failed verdict and reasoning. ` +
	`You may not modify any file.`

// fallbackVerificationReasoning is returned when the sub-agent
// exhausts its recursion bound without ever calling
// build_verification_response (spec §4.7 "fallback
// {passed:false, reasoning:'build_verification_response not yet
// called'}").
const fallbackVerificationReasoning = "build_verification_response not yet called"

// VerificationResult is the parsed content of a
// build_verification_response call.
type VerificationResult struct {
	Passed    bool
	Reasoning string
	// Called reports whether build_verification_response was actually
	// invoked. False means the recursion bound was exhausted first and
	// Reasoning/Passed are the fallback verdict — the router (spec
	// §4.8) treats this differently from a genuine passed=false verdict.
	Called bool
}

// RunVerification drives the verification sub-agent to a
// build_verification_response call or its recursion bound, whichever
// comes first (spec §4.7). Temperature is fixed at 0 — verification is
// a judgment call that should be as reproducible as possible, never a
// creative one.
func RunVerification(
	ctx context.Context,
	reg *llmprovider.Registry,
	cfg *config.Config,
	toolReg *tools.Registry,
	dispatcher *tools.Dispatcher,
	humanMessage string,
	messages []state.Message,
) (state.AgentOutcome, VerificationResult) {
	entries := toolReg.ListForTasks(tools.ListFilter{
		TaskTypes:          verificationScenarios,
		ExcludeSideEffects: verificationExcludedEffects,
	})
	lc := loopConfig{
		AgentName:     "verification",
		SystemPrompt:  verificationSystemPrompt,
		ToolDefs:      scopedToolDefs(entries),
		Profile:       cfg.LLM.DefaultProfile,
		Temperature:   0,
		MaxDepth:      verificationMaxDepth,
		TerminalTools: toolspec.NewSet(toolspec.MetaBuildVerificationResult),
	}

	transcript, terminal, err := runLoop(ctx, reg, dispatcher, humanMessage, messages, lc)
	if err != nil {
		return state.AgentOutcome{Agent: "verification", Status: state.StatusError, Result: err.Error(), Messages: transcript},
			VerificationResult{Passed: false, Reasoning: err.Error()}
	}

	if terminal == nil {
		outcome := state.AgentOutcome{
			Agent:    "verification",
			Status:   state.StatusFailed,
			Result:   fallbackVerificationReasoning,
			Messages: transcript,
		}
		return outcome, VerificationResult{Passed: false, Reasoning: fallbackVerificationReasoning}
	}

	passed, _ := terminal.Args["passed"].(bool)
	report, _ := terminal.Args["report"].(string)

	status := state.StatusFailed
	if passed {
		status = state.StatusSuccess
	}

	return state.AgentOutcome{Agent: "verification", Status: status, Result: report, Messages: transcript},
		VerificationResult{Passed: passed, Reasoning: report, Called: true}
}
