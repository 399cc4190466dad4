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

// genericMaxDepth bounds a delegated agent that is neither the coding
// nor the verification sub-agent (spec §4.1 "delegate -> execute
// (agent executor)"). No dedicated depth is named for this path in
// spec §4.6-§4.7, so it reuses the coding sub-agent's bound.
const genericMaxDepth = codingMaxDepth

const genericSystemPromptFormat = `You are the "%s" agent, delegated to by an orchestrator. Use the ` +
	`available tools to satisfy the request, then call "done" with a summary once finished.`

// RunGeneric drives a delegated agent that the planner named directly
// (an `agent:<name>` from agents.configs or an `llm:<profile>` ad hoc
// reference) rather than one of the two built-in sub-agents. It gets
// the full unscoped tool catalogue, since spec §4.6/§4.7's narrow
// scenario lists are specific to coding/verification. The resulting
// outcome's Agent field is the profile/agent name itself; the router
// (spec §4.8) treats any outcome whose Agent is neither "coding" nor
// "verification" as coming from this generic executor. The second
// return value mirrors CodingTerminal so the router can apply its
// "Last tool = done / build_verification_response" rows uniformly
// regardless of which executor produced the outcome.
func RunGeneric(
	ctx context.Context,
	reg *llmprovider.Registry,
	cfg *config.Config,
	toolReg *tools.Registry,
	dispatcher *tools.Dispatcher,
	agentName string,
	profile string,
	humanMessage string,
	messages []state.Message,
) (state.AgentOutcome, CodingTerminal) {
	entries := toolReg.ListForTasks(tools.ListFilter{IncludeUnannotated: true})
	lc := loopConfig{
		AgentName:    agentName,
		SystemPrompt: fmt.Sprintf(genericSystemPromptFormat, agentName),
		ToolDefs:     scopedToolDefs(entries),
		Profile:      profile,
		Temperature:  cfg.LLM.GenerationTemperature,
		MaxDepth:     genericMaxDepth,
		TerminalTools: toolspec.NewSet(
			toolspec.MetaDone, toolspec.MetaBuildVerificationResult,
			toolspec.MetaClarify, toolspec.MetaTaskComplete,
		),
	}

	transcript, terminal, err := runLoop(ctx, reg, dispatcher, humanMessage, messages, lc)
	if err != nil {
		return state.AgentOutcome{Agent: agentName, Status: state.StatusError, Result: err.Error(), Messages: transcript}, CodingTerminal{}
	}
	if terminal == nil {
		outcome := state.AgentOutcome{
			Agent:    agentName,
			Status:   state.StatusFailed,
			Result:   fmt.Sprintf("recursion depth %d reached without a terminal call", genericMaxDepth),
			Messages: transcript,
		}
		return outcome, CodingTerminal{}
	}

	switch toolspec.MetaTool(terminal.Name) {
	case toolspec.MetaDone:
		summary, _ := terminal.Args["summary"].(string)
		outcome := state.AgentOutcome{Agent: agentName, Status: state.StatusSuccess, Result: summary, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaDone)}
	case toolspec.MetaTaskComplete:
		result, _ := terminal.Args["result"].(string)
		outcome := state.AgentOutcome{Agent: agentName, Status: state.StatusSuccess, Result: result, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaTaskComplete)}
	case toolspec.MetaClarify:
		question, _ := terminal.Args["question"].(string)
		outcome := state.AgentOutcome{Agent: agentName, Status: state.StatusSuccess, Result: question, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaClarify)}
	case toolspec.MetaBuildVerificationResult:
		passed, _ := terminal.Args["passed"].(bool)
		report, _ := terminal.Args["report"].(string)
		status := state.StatusFailed
		if passed {
			status = state.StatusSuccess
		}
		outcome := state.AgentOutcome{Agent: agentName, Status: status, Result: report, Messages: transcript}
		return outcome, CodingTerminal{Tool: string(toolspec.MetaBuildVerificationResult), Passed: passed}
	default:
		outcome := state.AgentOutcome{Agent: agentName, Status: state.StatusFailed, Result: "unexpected terminal call " + terminal.Name, Messages: transcript}
		return outcome, CodingTerminal{}
	}
}
