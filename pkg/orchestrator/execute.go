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

package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/subagent"
)

// toolNode dispatches the tool calls the plan node synthesized (spec
// §4.5 "tool -> review"). Routing after dispatch is the review node's
// call, not this node's: a tool batch that accompanied a delegate
// decision (planner.Decision naming both tool_calls and an agent)
// still needs to resume into that agent afterwards (spec §4.8 row
// "last outcome from tool AND selected_agent set -> execute").
func (g *Graph) toolNode(ctx context.Context, st *state.AgentState) (stage, signal) {
	calls := st.ToolCalls
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = newToolCallID()
		}
	}

	start := time.Now()
	result := g.Dispatcher.Execute(ctx, calls, state.LastHuman(st.Messages))
	elapsed := time.Since(start)

	status := state.StatusSuccess
	if len(result.Errors) > 0 {
		status = state.StatusFailed
	}
	for _, call := range calls {
		g.Metrics.RecordToolCall(call.Name, elapsed)
	}
	if status == state.StatusFailed {
		for _, call := range calls {
			g.Metrics.RecordToolError(call.Name, "dispatch_error")
		}
	}

	st.Append(state.NewToolResult("", "tools", result.Summary))
	outcome := state.AgentOutcome{Agent: "tool", Status: status, Result: result.Summary}
	st.AgentOutcomes = append(st.AgentOutcomes, outcome)
	st.ToolCalls = nil

	return stageReview, signal{Agent: "tool"}
}

// executeNode resolves the planner's delegate decision (st.SelectedAgent)
// to one of the three sub-agent executors (spec §4.1 "delegate -> execute").
// The agent hint is consumed here: once read, it does not re-trigger a
// future execute pass on its own.
func (g *Graph) executeNode(ctx context.Context, st *state.AgentState) (stage, signal) {
	selected := st.SelectedAgent
	st.SelectedAgent = ""

	start := time.Now()
	switch {
	case selected == "agent:coding":
		outcome, terminal := subagent.RunCoding(ctx, g.LLMs, g.Config, g.Tools, g.Dispatcher,
			state.LastHuman(st.Messages), st.Messages)
		st.AgentOutcomes = append(st.AgentOutcomes, outcome)
		g.Metrics.RecordAgentCall("coding", "sub_agent", time.Since(start))
		return stageReview, signal{Agent: "coding", Tool: terminal.Tool, Passed: terminal.Passed}

	case selected == "agent:verification":
		outcome, result := subagent.RunVerification(ctx, g.LLMs, g.Config, g.Tools, g.Dispatcher,
			state.LastHuman(st.Messages), st.Messages)
		st.AgentOutcomes = append(st.AgentOutcomes, outcome)
		g.Metrics.RecordAgentCall("verification", "sub_agent", time.Since(start))
		tool := ""
		if result.Called {
			tool = "build_verification_response"
		}
		return stageReview, signal{Agent: "verification", Tool: tool, Passed: result.Passed}

	default:
		agentName, profile := g.resolveGenericAgent(selected)
		outcome, terminal := subagent.RunGeneric(ctx, g.LLMs, g.Config, g.Tools, g.Dispatcher,
			agentName, profile, state.LastHuman(st.Messages), st.Messages)
		st.AgentOutcomes = append(st.AgentOutcomes, outcome)
		g.Metrics.RecordAgentCall(agentName, "generic", time.Since(start))
		return stageReview, signal{Agent: agentName, Tool: terminal.Tool, Passed: terminal.Passed}
	}
}

// resolveGenericAgent maps a planner-selected agent reference to the
// (agent name, LLM profile) pair RunGeneric dispatches with. An
// "agent:<name>" reference looks up agents.configs[name]'s declared
// profile, falling back to the default LLM profile when the agent
// config names none; "llm:<profile>" uses the profile directly;
// anything unrecognized falls back to the default agent (spec §4.1
// "delegate -> execute (agent executor)").
func (g *Graph) resolveGenericAgent(selected string) (agentName, profile string) {
	switch {
	case strings.HasPrefix(selected, "agent:"):
		name := strings.TrimPrefix(selected, "agent:")
		profile := g.Config.LLM.DefaultProfile
		if def, ok := g.Config.Agents.Configs[name]; ok {
			if p, ok := def.Params["profile"].(string); ok && p != "" {
				profile = p
			}
		}
		return name, profile
	case strings.HasPrefix(selected, "llm:"):
		p := strings.TrimPrefix(selected, "llm:")
		return p, p
	default:
		name := g.Config.Agents.Preferences.DefaultAgent
		return name, g.Config.LLM.DefaultProfile
	}
}
